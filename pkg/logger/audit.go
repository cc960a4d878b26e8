package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is a security-relevant event. Login failures carry the real
// reason here even though the HTTP response stays generic.
type AuditEvent struct {
	EventType     string
	Role          string
	Identifier    string
	SourceAddress string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes structured security audit records
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs an authentication attempt outcome
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Role != "" {
		attrs = append(attrs, slog.String("role", event.Role))
	}
	if event.Identifier != "" {
		attrs = append(attrs, slog.String("identifier", SanitizedIdentifier(event.Identifier)))
	}
	if event.SourceAddress != "" {
		attrs = append(attrs, slog.String("source_address", event.SourceAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	if event.Success {
		al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
	} else {
		al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit", attrs...)
	}
}

// LogCSRFRejection logs a rejected state-changing request. These are
// potential attack signals, so they always log at warn.
func (al *AuditLogger) LogCSRFRejection(role, path, sourceAddress string) {
	al.logger.LogAttrs(context.Background(), slog.LevelWarn, "audit",
		slog.String("audit_type", "csrf"),
		slog.String("event_type", "csrf_rejected"),
		slog.String("role", role),
		slog.String("path", path),
		slog.String("source_address", sourceAddress),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	)
}

// LogAccountAction logs administrative account actions (resets, lockout
// clears, mentor creation and the like)
func (al *AuditLogger) LogAccountAction(eventType, role string, subjectID int64, metadata map[string]string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("role", role),
		slog.Int64("subject_id", subjectID),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	for key, val := range metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}
