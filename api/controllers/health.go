package controllers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/retailcart/cart-service/api/responses"
	"github.com/retailcart/cart-service/pkg/config"
	pkgerrors "github.com/retailcart/cart-service/pkg/errors"
	"github.com/retailcart/cart-service/pkg/logger"
)

// Pinger is the readiness contract a backing dependency exposes. A nil
// pinger means the dependency is not wired in this deployment and is
// skipped, not failed.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 2 * time.Second

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailCart-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every wired dependency and reports 503 if any fails.
// Failures are combined so one probe reports every broken dependency at
// once.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbPinger, redisPinger Pinger) http.HandlerFunc {
	deps := []struct {
		name   string
		pinger Pinger
	}{
		{name: "postgres", pinger: dbPinger},
		{name: "redis", pinger: redisPinger},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RetailCart-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs error
		failed := []string{}
		for _, dep := range deps {
			if dep.pinger == nil {
				continue
			}
			if err := dep.pinger.Ping(ctx); err != nil {
				errs = multierr.Append(errs, err)
				failed = append(failed, dep.name)
			}
		}

		if errs != nil {
			responses.WriteError(ctx, logg, w,
				pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "readiness check failed").
					WithDetails(map[string]any{"failed": failed}))
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
