package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"kittycore/internal/core"
)

func TestAuditLogger(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(NewLogger(&buf, LogFormatJSON, zerolog.InfoLevel, "kittyd"))

	audit.Record(context.Background(), core.AuditEntry{
		Operation: core.OpBuy,
		Entity:    core.EntityOwner,
		Action:    core.ActionUpdate,
		KittyID:   4,
		Actor:     "bob",
		Status:    core.AuditStatusError,
		Error:     "insufficient funds",
		Duration:  time.Millisecond,
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	audit.Record(context.Background(), core.AuditEntry{Operation: core.OpCreate, Status: core.AuditStatusSuccess, KittyID: 1, Actor: "alice"})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 audit lines, got %q", buf.String())
	}
	var failed map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &failed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if failed["level"] != "warn" || failed["component"] != "audit" || failed["operation"] != "buy_kitty" ||
		failed["kitty_id"] != float64(4) || failed["error"] != "insufficient funds" {
		t.Fatalf("unexpected audit entry %v", failed)
	}
	var ok map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &ok); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ok["level"] != "info" || ok["status"] != "success" {
		t.Fatalf("unexpected audit entry %v", ok)
	}
}
