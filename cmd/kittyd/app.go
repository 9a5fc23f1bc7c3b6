package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"kittycore/internal/auth"
	"kittycore/internal/blob"
	"kittycore/internal/chain"
	"kittycore/internal/config"
	"kittycore/internal/core"
	"kittycore/internal/events"
	"kittycore/internal/httpapi"
	"kittycore/internal/ledger"
	"kittycore/internal/observability"
	"kittycore/pkg/domain"
)

type app struct {
	cfg     config.Config
	logger  zerolog.Logger
	store   core.PersistentStore
	ledger  *ledger.Balances
	clock   *chain.Clock
	service *core.Service
	auth    *auth.JWT
	http    *httpapi.Server
	closers []func(context.Context) error
}

// newApp wires every daemon dependency from cfg. On error everything opened
// so far is released.
func newApp(ctx context.Context, cfg config.Config, logOut io.Writer) (_ *app, err error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("KITTYCORE_JWT_SECRET is required")
	}
	level, err := observability.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	a.logger = observability.NewLogger(logOut, observability.LogFormat(cfg.LogFormat), level, "kittyd")
	defer func() {
		if err != nil {
			_ = a.close(ctx)
		}
	}()

	shutdownTracing, err := observability.SetupTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.OTelEnabled,
		Endpoint:    cfg.OTelEndpoint,
		ServiceName: "kittyd",
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	a.closers = append(a.closers, shutdownTracing)

	a.store, err = core.OpenPersistentStore(ctx, cfg.StorageConfig(), nil)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if c, ok := a.store.(interface{ Close() error }); ok {
		a.closers = append(a.closers, func(context.Context) error { return c.Close() })
		a.logger.Warn().Str("storage", cfg.StorageDriver).Msg("dev ledger balances are in memory and reset from genesis on restart")
	}

	existential, err := cfg.Existential()
	if err != nil {
		return nil, err
	}
	a.ledger = ledger.New(existential)
	if cfg.GenesisFile != "" {
		genesis, err := config.LoadGenesis(cfg.GenesisFile)
		if err != nil {
			return nil, err
		}
		if err := genesis.Apply(a.ledger); err != nil {
			return nil, err
		}
		a.logger.Info().Int("accounts", len(genesis.Accounts)).Msg("genesis applied")
	}

	a.clock = chain.NewClock(1)
	randomness, err := newRandomness(cfg, a.clock)
	if err != nil {
		return nil, err
	}

	metrics, tracer, err := serviceTelemetry(cfg, logOut)
	if err != nil {
		return nil, err
	}

	serviceLogger := observability.NewServiceLogger(a.logger)
	sinks := events.Fanout{events.NewLogSink(serviceLogger)}
	if !cfg.JournalDisabled {
		blobs, err := blob.Open(ctx, cfg.BlobConfig())
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		sinks = append(sinks, events.NewJournal(blobs))
	}

	a.service = core.NewService(a.store, core.Capabilities{
		Randomness: randomness,
		Blocks:     a.clock,
		Currency:   a.ledger,
	},
		core.WithLogger(serviceLogger),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(tracer),
		core.WithAuditRecorder(observability.NewAuditLogger(a.logger)),
		core.WithEventSink(sinks),
	)

	a.auth, err = auth.NewJWT([]byte(cfg.JWTSecret), auth.WithTTL(cfg.TokenTTL))
	if err != nil {
		return nil, err
	}
	a.http = httpapi.New(a.service, a.auth, httpapi.Options{
		Logger:      a.logger,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     cfg.Metrics != config.MetricsExpvar,
		Expvar:      cfg.Metrics == config.MetricsExpvar,
	})
	return a, nil
}

// serviceTelemetry picks the operation metrics and tracing backends. JSON
// spans go to traceOut.
func serviceTelemetry(cfg config.Config, traceOut io.Writer) (core.MetricsRecorder, core.Tracer, error) {
	var metrics core.MetricsRecorder
	switch cfg.Metrics {
	case "", config.MetricsPrometheus:
		metrics = observability.NewPrometheusRecorder()
	case config.MetricsExpvar:
		metrics = core.NewExpvarMetricsRecorder("")
	default:
		return nil, nil, fmt.Errorf("unknown metrics backend %q", cfg.Metrics)
	}
	var tracer core.Tracer
	switch cfg.Tracer {
	case "", config.TracerOTel:
		tracer = observability.NewOTelTracer(nil)
	case config.TracerJSON:
		tracer = core.NewJSONTracer(traceOut)
	default:
		return nil, nil, fmt.Errorf("unknown tracer %q", cfg.Tracer)
	}
	return metrics, tracer, nil
}

func newRandomness(cfg config.Config, blocks domain.BlockNumberProvider) (*chain.Randomness, error) {
	seed, ok, err := cfg.Seed()
	if err != nil {
		return nil, err
	}
	if ok {
		return chain.NewRandomness(seed, blocks), nil
	}
	return chain.NewRandomnessFromEntropy(blocks)
}

// close releases resources in reverse order of acquisition.
func (a *app) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
