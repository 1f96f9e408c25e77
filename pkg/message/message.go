// Package message defines the value types that cross the boundary between
// channel adapters and the agent runtime.
package message

import "time"

// Inbound is a message arriving from a channel adapter, a cron fire, or the
// heartbeat service. Fields are mutable from the producing side; once handed
// to the bus, consumers must treat it as read-only.
type Inbound struct {
	Channel    string
	SenderID   string
	ChatID     string
	Content    string
	Timestamp  float64
	Media      []string
	Metadata   map[string]any
}

// SessionKey returns the conversation identifier this message belongs to.
func (m Inbound) SessionKey() string {
	return m.Channel + ":" + m.ChatID
}

// NewInbound builds an Inbound with defaults applied: Timestamp defaults to
// now, Media/Metadata default to empty (never nil, so callers can range over
// them without a nil check).
func NewInbound(channel, senderID, chatID, content string) Inbound {
	return Inbound{
		Channel:   channel,
		SenderID:  senderID,
		ChatID:    chatID,
		Content:   content,
		Timestamp: float64(time.Now().UnixNano()) / 1e9,
		Media:     []string{},
		Metadata:  map[string]any{},
	}
}

// Outbound is a message to be delivered to a channel adapter.
type Outbound struct {
	Channel  string
	ChatID   string
	Content  string
	ReplyTo  *string
	Media    []string
	Metadata map[string]any
}
