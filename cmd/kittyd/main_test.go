package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"kittycore/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		HTTPAddr:           "127.0.0.1:0",
		LogLevel:           "debug",
		LogFormat:          "json",
		StorageDriver:      "memory",
		BlobDriver:         "memory",
		JWTSecret:          "dev-secret",
		TokenTTL:           time.Hour,
		BlockTime:          time.Millisecond,
		ExistentialDeposit: "1",
		RandomSeed:         strings.Repeat("01", 32),
	}
}

func TestNewAppServesRegistry(t *testing.T) {
	cfg := testConfig(t)
	genesis := filepath.Join(t.TempDir(), "genesis.toml")
	if err := os.WriteFile(genesis, []byte("[[accounts]]\nid = \"bob\"\nbalance = \"500\"\n"), 0o600); err != nil {
		t.Fatalf("write genesis: %v", err)
	}
	cfg.GenesisFile = genesis

	var logs bytes.Buffer
	a, err := newApp(context.Background(), cfg, &logs)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.close(context.Background()) })

	free, _ := a.ledger.FreeBalance(context.Background(), "bob")
	if free.String() != "500" {
		t.Fatalf("genesis not applied, bob has %s", free)
	}

	tok, err := a.auth.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/kitties", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	a.http.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}
	for _, want := range []string{"registry event", "kitty_created", "audit", "genesis applied"} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("logs missing %q:\n%s", want, logs.String())
		}
	}
}

func TestNewAppExpvarAndJSONTracer(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics = config.MetricsExpvar
	cfg.Tracer = config.TracerJSON
	var logs bytes.Buffer
	a, err := newApp(context.Background(), cfg, &logs)
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	t.Cleanup(func() { _ = a.close(context.Background()) })

	tok, err := a.auth.Issue("alice")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/kitties", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	a.http.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	a.http.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "create_kitty") {
		t.Fatalf("debug/vars = %d %s", w.Code, w.Body.String())
	}
	w = httptest.NewRecorder()
	a.http.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected /metrics to be unmounted, got %d", w.Code)
	}
	if !strings.Contains(logs.String(), `"started_at"`) {
		t.Fatalf("expected json trace span in output:\n%s", logs.String())
	}
}

func TestServiceTelemetryRejectsUnknownBackends(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics = "statsd"
	if _, _, err := serviceTelemetry(cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected metrics error")
	}
	cfg = testConfig(t)
	cfg.Tracer = "zipkin"
	if _, _, err := serviceTelemetry(cfg, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected tracer error")
	}
}

func TestNewAppRejects(t *testing.T) {
	cases := map[string]func(*config.Config){
		"missing secret": func(c *config.Config) { c.JWTSecret = "" },
		"bad level":      func(c *config.Config) { c.LogLevel = "loud" },
		"bad storage":    func(c *config.Config) { c.StorageDriver = "tape" },
		"bad blob":       func(c *config.Config) { c.BlobDriver = "tape" },
		"missing genesis": func(c *config.Config) {
			c.GenesisFile = filepath.Join(os.TempDir(), "kittyd-no-such-genesis.toml")
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			mutate(&cfg)
			if _, err := newApp(context.Background(), cfg, &bytes.Buffer{}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.StorageDriver = "sqlite"
	cfg.SQLitePath = filepath.Join(t.TempDir(), "kittyd.db")
	a, err := newApp(context.Background(), cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("newApp: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for a.clock.BlockNumber() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if a.clock.BlockNumber() < 3 {
		t.Fatalf("block clock did not advance")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestCLIConfigError(t *testing.T) {
	t.Setenv("KITTYCORE_STORAGE_DRIVER", "tape")
	var stderr bytes.Buffer
	if code := cli(context.Background(), &bytes.Buffer{}, &stderr); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
	if !strings.Contains(stderr.String(), "KITTYCORE_STORAGE_DRIVER") {
		t.Fatalf("unexpected stderr %q", stderr.String())
	}
}
