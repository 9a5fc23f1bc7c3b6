package observability

import (
	"context"

	"github.com/rs/zerolog"

	"kittycore/internal/core"
)

// AuditLogger writes audit entries to a dedicated zerolog logger.
type AuditLogger struct {
	logger zerolog.Logger
}

var _ core.AuditRecorder = AuditLogger{}

// NewAuditLogger tags every entry with component=audit.
func NewAuditLogger(logger zerolog.Logger) AuditLogger {
	return AuditLogger{logger: logger.With().Str("component", "audit").Logger()}
}

// Record implements core.AuditRecorder.
func (a AuditLogger) Record(_ context.Context, entry core.AuditEntry) {
	event := a.logger.Info()
	if entry.Status == core.AuditStatusError {
		event = a.logger.Warn().Str("error", entry.Error)
	}
	event.
		Str("operation", entry.Operation).
		Str("entity", string(entry.Entity)).
		Str("action", string(entry.Action)).
		Uint32("kitty_id", uint32(entry.KittyID)).
		Str("actor", string(entry.Actor)).
		Str("status", string(entry.Status)).
		Dur("duration", entry.Duration).
		Time("at", entry.Timestamp).
		Msg("audit")
}
