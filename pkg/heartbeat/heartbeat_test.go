package heartbeat

import (
	"context"
	"testing"
	"time"

	"github.com/localloom/corebot/pkg/message"
)

func TestEnabledReflectsInterval(t *testing.T) {
	if (&Service{interval: 0}).Enabled() {
		t.Fatal("expected a zero interval to be disabled")
	}
	if !(&Service{interval: time.Second}).Enabled() {
		t.Fatal("expected a positive interval to be enabled")
	}
}

func TestStartReturnsImmediatelyWhenDisabled(t *testing.T) {
	svc := NewService("telegram", "c1", 0, func(ctx context.Context, msg message.Inbound) {
		t.Fatal("fire should never be called when disabled")
	})

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Start to return immediately for a disabled service")
	}
}

func TestStartFiresOnEachTick(t *testing.T) {
	fired := make(chan message.Inbound, 1)
	svc := NewService("telegram", "c1", 10*time.Millisecond, func(ctx context.Context, msg message.Inbound) {
		fired <- msg
	})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	go svc.Start(ctx)
	defer svc.Stop()

	select {
	case msg := <-fired:
		if msg.Channel != "telegram" || msg.ChatID != "c1" || msg.Metadata["source"] != "heartbeat" {
			t.Fatalf("unexpected heartbeat message: %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("expected a heartbeat to fire within the timeout")
	}
}

func TestStopUnblocksRunningService(t *testing.T) {
	svc := NewService("telegram", "c1", 10*time.Millisecond, func(ctx context.Context, msg message.Inbound) {})

	done := make(chan struct{})
	go func() {
		svc.Start(context.Background())
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	svc.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected Stop to unblock Start")
	}
}
