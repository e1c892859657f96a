package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/honeybadger0tter/mytropx-demo/api/controllers"
	"github.com/honeybadger0tter/mytropx-demo/api/middleware"
	cartsvc "github.com/honeybadger0tter/mytropx-demo/internal/cart"
	"github.com/honeybadger0tter/mytropx-demo/internal/catalog"
	checkoutsvc "github.com/honeybadger0tter/mytropx-demo/internal/checkout"
	"github.com/honeybadger0tter/mytropx-demo/pkg/config"
	"github.com/honeybadger0tter/mytropx-demo/pkg/logger"
	"github.com/honeybadger0tter/mytropx-demo/pkg/metrics"
	"github.com/honeybadger0tter/mytropx-demo/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	httpMetrics *metrics.HTTPMetrics,
	metricsRegistry *prometheus.Registry,
	cartStore redis.Pinger,
	provider catalog.Provider,
	cartService cartsvc.Service,
	checkoutService checkoutsvc.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, cartStore))
	})

	if metricsRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{}))
	}

	// Storefront client contract: bare JSON, no envelope.
	r.Get("/api/catalog", controllers.CatalogList(provider, logg))
	r.Post("/create-checkout-session", controllers.CreateCheckoutSession(checkoutService, logg))

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.CartSession(logg))
		r.Get("/", controllers.CartFetch(cartService, provider, logg))
		r.Delete("/", controllers.CartClear(cartService, provider, logg))
		r.Post("/items", controllers.CartAddItem(cartService, provider, logg))
		r.Patch("/items", controllers.CartUpdateItem(cartService, provider, logg))
		r.Delete("/items", controllers.CartRemoveItem(cartService, provider, logg))
	})

	return r
}
