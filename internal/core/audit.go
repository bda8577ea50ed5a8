package core

import "context"

// LoggingAuditRecorder forwards audit entries to a Logger at info level,
// or warn level for failed operations.
type LoggingAuditRecorder struct {
	Logger Logger
}

// Record implements AuditRecorder.
func (r LoggingAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	if r.Logger == nil {
		return
	}
	kv := []any{
		"operation", entry.Operation,
		"entity", entry.Entity,
		"action", entry.Action,
		"entity_id", entry.EntityID,
		"status", entry.Status,
		"duration", entry.Duration,
		"at", entry.Timestamp,
	}
	if entry.Status == AuditStatusError {
		r.Logger.Warn("audit", append(kv, "error", entry.Error)...)
		return
	}
	r.Logger.Info("audit", kv...)
}
