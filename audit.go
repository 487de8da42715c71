package goAuthClient

import (
	"context"
	"io"

	"github.com/MrEthical07/goAuthClient/internal/audit"
)

// AuditEvent is one session lifecycle transition.
type AuditEvent = audit.Event

// AuditSink receives audit events from the client's dispatcher goroutine.
type AuditSink = audit.Sink

// NoOpSink discards audit events.
type NoOpSink = audit.NoOpSink

// ChannelSink delivers audit events into a buffered channel.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes audit events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}

// Audit event types.
const (
	AuditLoginSuccess        = "login_success"
	AuditLoginFailure        = "login_failure"
	AuditRegister            = "register"
	AuditLogout              = "logout"
	AuditRefreshSuccess      = "refresh_success"
	AuditRefreshFailure      = "refresh_failure"
	AuditSessionExpiryPrompt = "session_expiry_prompt"
	AuditSessionExtended     = "session_extended"
	AuditSessionExpired      = "session_expired"
	AuditCheckAuth           = "check_auth"
)

func (c *Client) emitAudit(ctx context.Context, eventType string, success bool, userID string, err error, metadata map[string]string) {
	if c == nil || c.audit == nil {
		return
	}
	event := AuditEvent{
		Timestamp: c.now(),
		EventType: eventType,
		UserID:    userID,
		RequestID: requestIDFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if err != nil {
		event.Error = err.Error()
	}
	c.audit.Emit(ctx, event)
}
