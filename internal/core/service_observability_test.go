package core

import (
	"bytes"
	"context"
	"errors"
	"expvar"
	"strings"
	"testing"
	"time"

	"kittycore/pkg/domain"
)

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

func (c *captureLogger) has(call string) bool {
	for _, got := range c.calls {
		if got == call {
			return true
		}
	}
	return false
}

type captureAuditRecorder struct {
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.entries = append(c.entries, entry)
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, metricsCall{op: op, success: success})
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

func TestServiceObservabilityHooks(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 10, 1, 8, 30, 0, 0, time.UTC)
	audit := &captureAuditRecorder{}
	metrics := &captureMetricsRecorder{}
	var traceOut bytes.Buffer
	tracer := NewJSONTracer(&traceOut)
	log := &captureLogger{}
	f := newFixture(t,
		WithAuditRecorder(audit),
		WithMetricsRecorder(metrics),
		WithTracer(tracer),
		WithLogger(log),
		WithClock(ClockFunc(func() time.Time { return fixed })),
	)

	id := mustCreate(t, f.svc, alice)
	if err := f.svc.SetPrice(ctx, bob, id, domain.NewBalance(5)); err == nil {
		t.Fatalf("expected not owner")
	}

	if !metrics.has(OpCreate, true) || !metrics.has(OpSetPrice, false) {
		t.Fatalf("unexpected metrics calls %+v", metrics.calls)
	}
	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	created := audit.entries[0]
	if created.Operation != OpCreate || created.Status != AuditStatusSuccess || created.KittyID != id || created.Actor != "alice" {
		t.Fatalf("unexpected create audit entry %+v", created)
	}
	if created.Entity != EntityKitty || created.Action != ActionCreate || !created.Timestamp.Equal(fixed) {
		t.Fatalf("unexpected create audit metadata %+v", created)
	}
	rejected := audit.entries[1]
	if rejected.Status != AuditStatusError || rejected.Error == "" || rejected.Actor != "bob" {
		t.Fatalf("unexpected failure audit entry %+v", rejected)
	}

	entries := tracer.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 spans, got %d", len(entries))
	}
	if entries[1].Status != "error" || entries[1].Code != domain.CodeNotOwner {
		t.Fatalf("expected not owner span, got %+v", entries[1])
	}
	if !strings.Contains(traceOut.String(), `"operation":"set_price"`) {
		t.Fatalf("expected encoded span, got %s", traceOut.String())
	}
	if !log.has("d:operation committed") || !log.has("e:operation failed") {
		t.Fatalf("expected debug and error logs, got %v", log.calls)
	}
}

func TestRecordAuditIgnoresUnknownOperation(t *testing.T) {
	audit := &captureAuditRecorder{}
	svc := NewInMemoryService(nil, Capabilities{}, WithAuditRecorder(audit))
	svc.recordAudit(context.Background(), "unknown_operation", "alice", 1, time.Second, nil)
	if len(audit.entries) != 0 {
		t.Fatalf("expected no audit entries, got %d", len(audit.entries))
	}
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	svc := NewInMemoryService(nil, Capabilities{},
		WithLogger(nil), WithMetricsRecorder(nil), WithTracer(nil),
		WithAuditRecorder(nil), WithClock(nil), WithEventSink(nil))
	if svc.logger == nil || svc.metrics == nil || svc.tracer == nil || svc.audit == nil || svc.clock == nil || svc.events == nil {
		t.Fatalf("expected defaults to survive nil options")
	}
	if svc.clock.Now().IsZero() {
		t.Fatalf("expected system clock")
	}
	logger := noopLogger{}
	logger.Debug("x")
	logger.Info("x")
	logger.Warn("x")
	logger.Error("x")
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	if !strings.HasPrefix(rec.Name(), "kittycore_service_metrics_") {
		t.Fatalf("unexpected name %s", rec.Name())
	}
	ctx := context.Background()
	rec.Observe(ctx, OpBuy, true, 2*time.Millisecond)
	rec.Observe(ctx, OpBuy, false, 6*time.Millisecond)
	rec.Observe(ctx, "", true, time.Second)

	snap := rec.Snapshot()
	stats := snap.Operations[OpBuy]
	if stats.Calls != 2 || stats.Errors != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.TotalMS != 8 || stats.MaxMS != 6 {
		t.Fatalf("unexpected latency totals %+v", stats)
	}
	if _, ok := snap.Operations[""]; ok {
		t.Fatalf("empty operation must be ignored")
	}
	if v := expvar.Get(rec.Name()); v == nil || !strings.Contains(v.String(), OpBuy) {
		t.Fatalf("expected published expvar")
	}
}

func TestJSONTracerWithoutWriter(t *testing.T) {
	tracer := NewJSONTracer(nil)
	_, span := tracer.Start(context.Background(), OpTransfer)
	span.End(errors.New("plain"))
	entries := tracer.Entries()
	if len(entries) != 1 || entries[0].Code != domain.CodeUnknown || entries[0].Error != "plain" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}
