// Package heartbeat implements the periodic "check in on the user" signal
// (spec.md §4.9): a plain ticker that synthesizes a system inbound message
// at a fixed interval, letting the agent loop decide whether anything is
// worth surfacing.
package heartbeat

import (
	"context"
	"sync"
	"time"

	"github.com/localloom/corebot/pkg/message"
)

// FireFunc handles a heartbeat tick, typically routing msg through
// ProcessDirect on the agent loop.
type FireFunc func(ctx context.Context, msg message.Inbound)

// Service emits a heartbeat inbound message every interval.
type Service struct {
	channel  string
	chatID   string
	interval time.Duration
	fire     FireFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewService builds a heartbeat Service. A non-positive interval disables
// the service entirely (Start returns immediately).
func NewService(channel, chatID string, interval time.Duration, fire FireFunc) *Service {
	return &Service{channel: channel, chatID: chatID, interval: interval, fire: fire}
}

// Enabled reports whether this service would actually fire.
func (s *Service) Enabled() bool { return s.interval > 0 }

// Start runs the ticking loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			msg := message.NewInbound(s.channel, "heartbeat", s.chatID, "")
			msg.Metadata["source"] = "heartbeat"
			s.fire(ctx, msg)
		}
	}
}

// Stop ends the ticking loop.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		close(s.stopCh)
		s.running = false
	}
}
