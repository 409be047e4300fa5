// Package app wires the tasktrack server runtime: config, logging, storage, metrics,
// and HTTP routes.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"tasktrack/cmd/internal/auth/account"
	"tasktrack/cmd/internal/auth/gate"
	"tasktrack/cmd/internal/httpapi"
	"tasktrack/cmd/internal/metrics"
	"tasktrack/cmd/internal/task"
	"tasktrack/cmd/security/token"
)

// App is the tasktrack server runtime: it owns storage, metrics, and HTTP wiring.
type App struct {
	cfg     Config
	log     Logger
	store   *backend
	metrics *metrics.Metrics
	api     *httpapi.Handler
	handler http.Handler
}

// New constructs a fully wired App. Storage is opened here; Close releases it.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		return nil, errors.New("app: nil logger")
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}

	tokens, err := token.NewManager(cfg.Token)
	if err != nil {
		return nil, err
	}

	store, err := openBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()

	accounts, err := account.New(store.users, cfg.Password, tokens,
		account.WithLogger(log),
		account.WithRecorder(m),
	)
	if err != nil {
		store.close()
		return nil, err
	}

	g := gate.New(tokens,
		gate.WithLogger(log),
		gate.WithRecorder(m),
		gate.WithReject(httpapi.RejectUnauthenticated),
	)

	api, err := httpapi.NewHandler(log,
		httpapi.Config{MaxBodyBytes: cfg.MaxBodyBytes},
		accounts,
		task.NewService(store.tasks),
		g,
		gate.UserFrom,
	)
	if err != nil {
		store.close()
		return nil, err
	}

	a := &App{
		cfg:     cfg,
		log:     log,
		store:   store,
		metrics: m,
		api:     api,
	}

	mux := http.NewServeMux()
	a.registerHTTP(mux)
	a.handler = WithRequestID(WithSecurityHeaders(WithRequestLogging(mux, log, m)))

	return a, nil
}

// Handler returns the fully wrapped root handler.
func (a *App) Handler() http.Handler { return a.handler }

// Close releases storage resources.
func (a *App) Close() {
	if a.store != nil {
		a.store.close()
	}
}

// Run listens on the configured address and serves until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", a.cfg.HTTPAddr)
	if err != nil {
		a.log.Error("server.listen.fail", "addr", a.cfg.HTTPAddr, "err", err)
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve blocks serving HTTP on ln until ctx is canceled or the server fails, then shuts
// down gracefully within the configured timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start",
		"addr", ln.Addr().String(),
		"storage", a.store.driver,
		"token_format", string(a.cfg.Token.Format),
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server.fail", "err", err)
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			a.log.Info("server.stop", "reason", "context_done")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), nonZeroDuration(a.cfg.ShutdownTimeout, 10*time.Second))
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.log.Error("server.shutdown.fail", "err", err)
			return err
		}
		return nil
	})

	err := g.Wait()
	if err == nil {
		a.log.Info("server.stopped")
	}
	return err
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
