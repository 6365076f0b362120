package app

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func registerHTTP(mux *http.ServeMux, a *App) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if a.cfg.ReadinessRequireDB && !a.dbEnabled {
			http.Error(w, "db not configured", http.StatusServiceUnavailable)
			return
		}

		if a.dbEnabled && a.dbPool != nil {
			if err := pingDB(r.Context(), a.dbPool, 2*time.Second); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				a.log.Info("readyz.db.not_ready", "err", err)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{}))

	// Chat routes carry no API key: browsers open the websocket directly
	// and authenticate by sending an identify event on the socket.
	mux.HandleFunc("GET /chat/ws/{group}", a.gateway.HandleWS)
	mux.Handle("GET /chat/history/{group}", a.history)
	mux.Handle("GET /chat/presence/{group}", a.presence)

	// Each REST surface sits behind its own key so a leaked client key
	// compromises one surface, not all of them.
	mountKeyed(mux, "/group/", a.groups, a.cfg.GroupAPIKey)
	mountKeyed(mux, "/user/", a.users, a.cfg.UserAPIKey)
	mountKeyed(mux, "/file/", a.files, a.cfg.FileAPIKey)
}

// muxRegistrar is implemented by every REST handler in the app.
type muxRegistrar interface {
	Register(mux *http.ServeMux)
}

// mountKeyed registers a handler's routes on a sub-mux behind the API key
// check and mounts it under prefix. All routes of one surface share the
// prefix, so the outer mux only needs the one entry.
func mountKeyed(mux *http.ServeMux, prefix string, h muxRegistrar, key string) {
	sub := http.NewServeMux()
	h.Register(sub)
	mux.Handle(prefix, RequireAPIKey(sub, key))
}
