package app

import (
	"net/http"
	"time"
)

const readyzTimeout = 2 * time.Second

func (a *App) registerHTTP(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.store.ping(r.Context()); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			a.log.Info("readyz.storage.not_ready", "driver", a.store.driver, "err", err)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", a.metrics.Handler())

	a.api.Register(mux)
}
