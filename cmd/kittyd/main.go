// Command kittyd serves the kitty registry over HTTP on a local dev chain:
// an in-process block clock, a keyed randomness beacon and an in-memory
// ledger endowed from a genesis file.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kittycore/internal/config"
)

const shutdownTimeout = 10 * time.Second

var exitFunc = os.Exit

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli(ctx, os.Stdout, os.Stderr)
	stop()
	exitFunc(code)
}

func cli(ctx context.Context, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "kittyd: %v\n", err)
		return 2
	}
	a, err := newApp(ctx, cfg, stdout)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "kittyd: %v\n", err)
		return 1
	}
	if err := a.serve(ctx); err != nil {
		_, _ = fmt.Fprintf(stderr, "kittyd: %v\n", err)
		return 1
	}
	return 0
}

// serve runs the block clock and HTTP server until ctx is cancelled, then
// drains connections and releases the store.
func (a *app) serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.http.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	clockCtx, stopClock := context.WithCancel(ctx)
	defer stopClock()
	go a.clock.Run(clockCtx, a.cfg.BlockTime)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Msg("kittyd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info().Msg("kittyd shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serveErr = errors.Join(serveErr, fmt.Errorf("http shutdown: %w", err))
	}
	return errors.Join(serveErr, a.close(shutdownCtx))
}
