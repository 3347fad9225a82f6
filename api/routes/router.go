package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/literaryhaven-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/literaryhaven-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/literaryhaven-backend/api/controllers/orders"
	"github.com/angelmondragon/literaryhaven-backend/api/middleware"
	checkoutsvc "github.com/angelmondragon/literaryhaven-backend/internal/checkout"
	"github.com/angelmondragon/literaryhaven-backend/internal/orders"
	products "github.com/angelmondragon/literaryhaven-backend/internal/products"
	"github.com/angelmondragon/literaryhaven-backend/pkg/config"
	"github.com/angelmondragon/literaryhaven-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/literaryhaven-backend/pkg/redis"
)

// KeyValueStore is the redis surface the HTTP layer needs: idempotency
// records, the checkout in-flight guard and rate-limit counters.
type KeyValueStore interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	CheckoutInFlightKey(sessionID string) string
	Ping(ctx context.Context) error
}

// Dependencies groups the services mounted by NewRouter.
type Dependencies struct {
	DB       controllers.Pinger
	Cache    KeyValueStore
	Products products.Service
	Carts    controllers.CartStores
	Checkout checkoutsvc.Service
	Orders   orders.Service
	// Metrics serves the prometheus scrape endpoint; nil leaves it unmounted.
	Metrics http.Handler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy(
		"checkout",
		cfg.Checkout.RateLimitWindow,
		cfg.Checkout.RateLimitPerIP,
		cfg.Checkout.RateLimitPerEmail,
	)
	shopperIdempotent := middleware.Idempotency(deps.Cache, middleware.ShopperIdempotency, logg)
	adminIdempotent := middleware.Idempotency(deps.Cache, middleware.AdminIdempotency, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"postgres": deps.DB,
			"redis":    deps.Cache,
		}, logg))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, logg))

		r.Route("/v1", func(r chi.Router) {
			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.ProductList(deps.Products, logg))
				r.Get("/featured", controllers.ProductFeatured(deps.Products, logg))
				r.Get("/categories", controllers.ProductCategories(deps.Products, logg))
				r.Get("/{productId}", controllers.ProductDetail(deps.Products, logg))
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.CartSession(middleware.CartSessionOptions{
					CookieName: cfg.Cart.SessionCookie,
					MaxAge:     cfg.Cart.StorageTTL,
					Secure:     cfg.App.IsProd(),
				}, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", cartcontrollers.CartFetch(deps.Carts, logg))
					r.Delete("/", cartcontrollers.CartClear(deps.Carts, logg))
					r.Post("/items", cartcontrollers.CartAddItem(deps.Carts, deps.Products, logg))
					r.Patch("/items/{productId}", cartcontrollers.CartUpdateItem(deps.Carts, logg))
					r.Delete("/items/{productId}", cartcontrollers.CartRemoveItem(deps.Carts, logg))
				})

				r.Get("/checkout/prefill", controllers.CheckoutPrefill(logg))
				r.With(
					middleware.RateLimit(checkoutPolicy, deps.Cache, logg),
					shopperIdempotent,
				).Post("/checkout", controllers.Checkout(deps.Checkout, deps.Carts, deps.Cache, cfg.Checkout.InFlightTTL, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.History(deps.Orders, logg))
				r.Get("/track/{orderNumber}", ordercontrollers.Track(deps.Orders, logg))
				r.With(shopperIdempotent).Post("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))
			})
		})

		r.Route("/admin/v1", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
				r.With(adminIdempotent).Patch("/{orderId}/status", controllers.AdminOrderStatus(deps.Orders, logg))
			})
		})
	})

	return r
}
