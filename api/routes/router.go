package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retailcart/cart-service/api/controllers"
	cartcontrollers "github.com/retailcart/cart-service/api/controllers/cart"
	"github.com/retailcart/cart-service/api/middleware"
	cartsvc "github.com/retailcart/cart-service/internal/cart"
	"github.com/retailcart/cart-service/internal/promotions"
	"github.com/retailcart/cart-service/pkg/config"
	"github.com/retailcart/cart-service/pkg/logger"
	"github.com/retailcart/cart-service/pkg/metrics"
)

// RouterParams collects everything the HTTP surface needs. Pingers are nil
// when the deployment runs without that dependency.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    controllers.Pinger
	RedisPinger controllers.Pinger
	CartService cartsvc.Service
	Catalog     promotions.Catalog
	Clock       cartsvc.Clock
	HTTPMetrics *metrics.HTTPMetrics
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(params.HTTPMetrics),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/cart", func(r chi.Router) {
		r.Post("/", cartcontrollers.CreateCart(params.CartService, logg))

		r.Route("/{cartId}", func(r chi.Router) {
			r.Get("/", cartcontrollers.GetCart(params.CartService, logg))
			r.Get("/summary", cartcontrollers.Summary(params.CartService, logg))

			r.Route("/items", func(r chi.Router) {
				r.Post("/", cartcontrollers.AddItem(params.CartService, logg))
				r.Delete("/", cartcontrollers.ClearItems(params.CartService, logg))
				r.Put("/{productId}", cartcontrollers.UpdateItem(params.CartService, logg))
				r.Delete("/{productId}", cartcontrollers.RemoveItem(params.CartService, logg))
			})

			r.Route("/promotions", func(r chi.Router) {
				r.Post("/", cartcontrollers.ApplyPromotion(params.CartService, logg))
				r.Delete("/", cartcontrollers.ClearPromotions(params.CartService, logg))
				r.Delete("/{code}", cartcontrollers.RemovePromotion(params.CartService, logg))
			})
		})
	})

	r.Route("/promotions", func(r chi.Router) {
		r.Get("/", controllers.PromotionList(params.Catalog, logg, params.Clock))
		r.Get("/{code}", controllers.PromotionFetch(params.Catalog, logg, params.Clock))
	})

	return r
}
