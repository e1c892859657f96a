package controllers

import (
	"net/http"

	"github.com/honeybadger0tter/mytropx-demo/api/responses"
	"github.com/honeybadger0tter/mytropx-demo/pkg/config"
	pkgerrors "github.com/honeybadger0tter/mytropx-demo/pkg/errors"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
	"github.com/honeybadger0tter/mytropx-demo/pkg/redis"
)

const envHeader = "X-Tropx-Env"

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness. The cart store ping is skipped when the
// service runs on the in-memory store.
func HealthReady(cfg *config.Config, logg *logger.Logger, cartStore redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		if cartStore != nil {
			if err := cartStore.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart store unavailable"))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
