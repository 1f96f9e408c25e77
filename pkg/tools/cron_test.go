package tools

import (
	"context"
	"testing"

	"github.com/localloom/corebot/pkg/cron"
)

func newTestCronStore(t *testing.T) *cron.Store {
	t.Helper()
	store, err := cron.NewStore(t.TempDir(), "cron/jobs.json")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

func TestScheduleJobToolCreatesJobWithGeneratedID(t *testing.T) {
	store := newTestCronStore(t)
	tool := NewScheduleJobTool(store)
	tool.SetContext("telegram", "c1")

	result := tool.Execute(context.Background(), map[string]interface{}{
		"schedule": "0 9 * * *",
		"content":  "good morning",
	})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}

	jobs := store.List()
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job to be scheduled, got %d", len(jobs))
	}
	job := jobs[0]
	if job.ID == "" {
		t.Fatal("expected a generated job ID")
	}
	if job.Channel != "telegram" || job.ChatID != "c1" || job.Content != "good morning" {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestScheduleJobToolRejectsInvalidSchedule(t *testing.T) {
	tool := NewScheduleJobTool(newTestCronStore(t))
	result := tool.Execute(context.Background(), map[string]interface{}{
		"schedule": "garbage",
		"content":  "x",
	})
	if !result.IsError {
		t.Fatal("expected an error for an invalid cron schedule")
	}
}

func TestScheduleJobToolRequiresScheduleAndContent(t *testing.T) {
	tool := NewScheduleJobTool(newTestCronStore(t))
	result := tool.Execute(context.Background(), map[string]interface{}{"schedule": "* * * * *"})
	if !result.IsError {
		t.Fatal("expected an error when content is missing")
	}
}

func TestCancelJobToolRemovesExistingJob(t *testing.T) {
	store := newTestCronStore(t)
	if err := store.Upsert(cron.Job{ID: "job-1", Schedule: "* * * * *", Content: "ping"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	tool := NewCancelJobTool(store)
	result := tool.Execute(context.Background(), map[string]interface{}{"id": "job-1"})
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.ForLLM)
	}
	if _, ok := store.Get("job-1"); ok {
		t.Fatal("expected job to be removed from the store")
	}
}

func TestCancelJobToolReportsMissingJob(t *testing.T) {
	tool := NewCancelJobTool(newTestCronStore(t))
	result := tool.Execute(context.Background(), map[string]interface{}{"id": "nope"})
	if result.IsError {
		t.Fatalf("expected a non-error result for a missing job, got error: %s", result.ForLLM)
	}
}

func TestCancelJobToolRequiresID(t *testing.T) {
	tool := NewCancelJobTool(newTestCronStore(t))
	result := tool.Execute(context.Background(), map[string]interface{}{})
	if !result.IsError {
		t.Fatal("expected an error when id is missing")
	}
}

func TestListJobsToolReportsEmptyStore(t *testing.T) {
	tool := NewListJobsTool(newTestCronStore(t))
	result := tool.Execute(context.Background(), map[string]interface{}{})
	if result.ForLLM != "No scheduled jobs." {
		t.Fatalf("unexpected result: %q", result.ForLLM)
	}
}

func TestListJobsToolListsScheduledJobs(t *testing.T) {
	store := newTestCronStore(t)
	if err := store.Upsert(cron.Job{ID: "job-1", Schedule: "* * * * *", Content: "ping"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	tool := NewListJobsTool(store)
	result := tool.Execute(context.Background(), map[string]interface{}{})
	if result.ForLLM == "No scheduled jobs." {
		t.Fatal("expected listed jobs to be reported")
	}
}
