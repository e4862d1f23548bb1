// Package bot bridges the meeting manager to chat platforms (Discord, Slack).
// It owns the conversation state tracker for the guided creation dialogue
// and the router that turns inbound chat events into lifecycle operations.
package bot

import (
	"context"
	"time"
)

// Adapter is the interface that platform-specific implementations must
// satisfy. Each adapter handles connection management, message delivery and
// interactive button events for a single chat platform.
type Adapter interface {
	// Connect establishes a connection to the chat platform.
	Connect(ctx context.Context) error

	// Listen returns a channel of inbound events from the platform.
	// The channel is closed when the context is cancelled or the adapter
	// is closed. Listen must only be called after Connect.
	Listen(ctx context.Context) (<-chan InboundMessage, error)

	// Send delivers an outbound message to the platform.
	Send(ctx context.Context, msg OutboundMessage) error

	// Close gracefully shuts down the adapter connection.
	Close() error
}

// InboundMessage represents a message or button click received from the chat
// platform. For button clicks ActionID is set and Text is empty.
type InboundMessage struct {
	Platform  string    // e.g. "slack", "discord"
	ChannelID string    // platform-specific channel identifier
	UserID    string    // platform-specific user identifier
	UserName  string    // human-readable username
	Text      string    // raw message text
	ActionID  string    // button action id, e.g. "register_7" (empty for text)
	Timestamp time.Time // when the event occurred
}

// OutboundMessage represents a message to be sent to the chat platform.
type OutboundMessage struct {
	ChannelID string        // target channel (adapters fall back to a default)
	Text      string        // message text
	Cards     []MeetingCard // structured meeting attachments
}

// MeetingCard is a meeting rendered for display in chat, with interactive
// buttons the platform maps to its native components.
type MeetingCard struct {
	Title   string
	Body    string
	Link    string // calendar link, empty when the meeting is local-only
	Fields  []Field
	Buttons []Button
}

// Field is a key-value pair displayed on a meeting card.
type Field struct {
	Name  string
	Value string
	Short bool // hint: render side-by-side with another field
}

// Button is an interactive control on a meeting card. Clicks come back as
// InboundMessages carrying the ActionID.
type Button struct {
	Label    string
	ActionID string
}

// BotUserIDer is an optional interface that adapters can implement to
// expose the bot's own user ID. This enables self-message filtering.
type BotUserIDer interface {
	BotUserID() string
}
