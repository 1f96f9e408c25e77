package cron

import (
	"context"
	"testing"
	"time"

	"github.com/localloom/corebot/pkg/message"
)

func TestValidateScheduleAcceptsAndRejects(t *testing.T) {
	if !ValidateSchedule("*/5 * * * *") {
		t.Fatal("expected a valid 5-field expression to validate")
	}
	if ValidateSchedule("not a cron expr") {
		t.Fatal("expected a garbage expression to be rejected")
	}
}

func TestNextRunReturnsAFutureTime(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	next, err := NextRun("0 9 * * *", from)
	if err != nil {
		t.Fatalf("NextRun: %v", err)
	}
	if !next.After(from) {
		t.Fatalf("expected next run after %v, got %v", from, next)
	}
}

func TestNextRunRejectsInvalidSchedule(t *testing.T) {
	if _, err := NextRun("garbage", time.Now()); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestStoreUpsertGetListDelete(t *testing.T) {
	s, err := NewStore(t.TempDir(), "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	job := Job{ID: "job-1", Schedule: "* * * * *", Channel: "telegram", ChatID: "c1", Content: "ping"}
	if err := s.Upsert(job); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	got, ok := s.Get("job-1")
	if !ok || got.Content != "ping" {
		t.Fatalf("expected to get back the upserted job, got %+v (ok=%v)", got, ok)
	}

	if len(s.List()) != 1 {
		t.Fatalf("expected 1 job in list, got %d", len(s.List()))
	}

	removed, err := s.Delete("job-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Fatal("expected Delete to report removal")
	}
	if len(s.List()) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(s.List()))
	}
}

func TestStorePersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Upsert(Job{ID: "job-1", Schedule: "* * * * *", Channel: "telegram", ChatID: "c1", Content: "ping"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	reloaded, err := NewStore(dir, "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore (reload): %v", err)
	}
	if _, ok := reloaded.Get("job-1"); !ok {
		t.Fatal("expected job to survive reload from disk")
	}
}

func TestServiceFiresDueJobsAndRecordsLastRun(t *testing.T) {
	store, err := NewStore(t.TempDir(), "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Upsert(Job{ID: "job-1", Schedule: "* * * * *", Channel: "telegram", ChatID: "c1", Content: "ping"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	fired := make(chan message.Inbound, 1)
	svc := NewService(store, 10*time.Millisecond, func(ctx context.Context, job Job, msg message.Inbound) {
		fired <- msg
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go svc.Start(ctx)
	defer svc.Stop()

	select {
	case msg := <-fired:
		if msg.Content != "ping" || msg.Metadata["job_id"] != "job-1" {
			t.Fatalf("unexpected fired message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a due job to fire within the timeout")
	}

	job, ok := store.Get("job-1")
	if !ok || job.LastRun.IsZero() {
		t.Fatalf("expected LastRun to be recorded, got %+v", job)
	}
}

func TestServiceSkipsInvalidSchedule(t *testing.T) {
	store, err := NewStore(t.TempDir(), "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := store.Upsert(Job{ID: "bad", Schedule: "not a schedule", Channel: "telegram", ChatID: "c1", Content: "x"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	fired := make(chan struct{}, 1)
	svc := NewService(store, 10*time.Millisecond, func(ctx context.Context, job Job, msg message.Inbound) {
		fired <- struct{}{}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	svc.Start(ctx)

	select {
	case <-fired:
		t.Fatal("expected an invalid schedule to never fire")
	default:
	}
}
