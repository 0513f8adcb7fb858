package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/northwind-labs/storefront/api/controllers"
	"github.com/northwind-labs/storefront/api/middleware"
	"github.com/northwind-labs/storefront/internal/auth"
	"github.com/northwind-labs/storefront/internal/cart"
	"github.com/northwind-labs/storefront/internal/checkout"
	"github.com/northwind-labs/storefront/internal/orders"
	"github.com/northwind-labs/storefront/internal/products"
	"github.com/northwind-labs/storefront/internal/users"
	"github.com/northwind-labs/storefront/pkg/auth/session"
	"github.com/northwind-labs/storefront/pkg/config"
	"github.com/northwind-labs/storefront/pkg/enums"
	"github.com/northwind-labs/storefront/pkg/logger"
	"github.com/northwind-labs/storefront/pkg/metrics"
	pkgredis "github.com/northwind-labs/storefront/pkg/redis"
)

// RedisStore is the redis surface the HTTP layer needs for rate limiting and idempotency.
type RedisStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Deps carries everything NewRouter wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker

	Auth     auth.Service
	Products products.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Users    users.Service

	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler
}

func NewRouter(d Deps) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	if cfg.App.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(d.HTTPMetrics),
		middleware.CORS(cfg.CORS.AllowedOrigins),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	var redisPinger controllers.Pinger
	if d.Redis != nil {
		if p, ok := d.Redis.(controllers.Pinger); ok {
			redisPinger = p
		}
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"postgres": d.DB,
			"redis":    redisPinger,
		}))
	})
	if d.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", d.MetricsHandler)
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	cookies := controllers.NewSessionCookies(cfg)
	adminOnly := middleware.RequireRole(logg, enums.UserRoleAdmin)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(d.Redis, cfg.APIRateLimit.Limit, cfg.APIRateLimit.Window, logg))

		r.Get("/health", controllers.HealthLive(cfg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(registerPolicy, d.Redis, logg)).Post("/register", controllers.AuthRegister(d.Auth, cookies, logg))
			r.With(middleware.AuthRateLimit(loginPolicy, d.Redis, logg)).Post("/login", controllers.AuthLogin(d.Auth, cookies, logg))
			r.Post("/refresh", controllers.AuthRefresh(d.Auth, cookies, logg))
			r.With(requireAuth).Post("/logout", controllers.AuthLogout(d.Auth, cookies, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(d.Auth, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(d.Products, logg))
			r.Get("/categories", controllers.ProductCategories(d.Products, logg))
			r.Get("/{id}", controllers.ProductGet(d.Products, logg))
			r.Group(func(r chi.Router) {
				r.Use(requireAuth, adminOnly)
				r.Post("/", controllers.ProductCreate(d.Products, logg))
				r.Put("/{id}", controllers.ProductUpdate(d.Products, logg))
				r.Delete("/{id}", controllers.ProductDelete(d.Products, logg))
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.Idempotency(d.Redis, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartGet(d.Cart, logg))
				r.Post("/", controllers.CartAddItem(d.Cart, logg))
				r.Delete("/", controllers.CartClear(d.Cart, logg))
				r.Put("/{itemId}", controllers.CartUpdateItem(d.Cart, logg))
				r.Delete("/{itemId}", controllers.CartRemoveItem(d.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", controllers.OrderCreate(d.Checkout, logg))
				r.Get("/myorders", controllers.OrdersMine(d.Orders, logg))
				r.Get("/{id}", controllers.OrderGet(d.Orders, logg))
				r.Put("/{id}/pay", controllers.OrderPay(d.Orders, logg))
				r.With(adminOnly).Put("/{id}/deliver", controllers.OrderDeliver(d.Orders, logg))
				r.With(adminOnly).Get("/", controllers.OrdersList(d.Orders, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", controllers.UsersList(d.Users, logg))
				r.Get("/{id}", controllers.UserGet(d.Users, logg))
				r.Put("/{id}", controllers.UserUpdate(d.Users, logg))
				r.Delete("/{id}", controllers.UserDelete(d.Users, logg))
			})
		})
	})

	return r
}
