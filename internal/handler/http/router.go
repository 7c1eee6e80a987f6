package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yogeshdgrg/BR-Dashboard/internal/service"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/health"
	"github.com/yogeshdgrg/BR-Dashboard/pkg/middleware"
)

// RouterConfig carries the router-level settings.
type RouterConfig struct {
	ServiceName   string
	CORS          middleware.CORSConfig
	SecureCookies bool
	EnableTracing bool
}

// NewRouter creates a chi router with all dashboard routes registered. Reads
// are public (the storefront consumes them); every mutation sits behind the
// admin auth middleware.
func NewRouter(
	cfg RouterConfig,
	productService *service.ProductService,
	bannerService *service.BannerService,
	authService *service.AuthService,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware. RequestLogger runs last so the request-scoped
	// logger sees the correlation ID and trace context.
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	if cfg.EnableTracing {
		r.Use(middleware.Tracing(cfg.ServiceName))
	}
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	requireAdmin := middleware.Auth(func(token string) (*middleware.Claims, error) {
		claims, err := authService.ValidateToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{AdminID: claims.AdminID, Email: claims.Email}, nil
	})

	authHandler := NewAuthHandler(authService, cfg.SecureCookies, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.With(requireAdmin).Post("/register", authHandler.Register)
	})

	// Public reads get a short CDN/browser cache window.
	publicCache := middleware.CacheControl(60)

	productHandler := NewProductHandler(productService, logger)
	r.Route("/api/v1/products", func(r chi.Router) {
		r.With(publicCache).Get("/", productHandler.ListProducts)
		r.With(publicCache).Get("/{id}", productHandler.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", productHandler.CreateProduct)
			r.Put("/{id}", productHandler.UpdateProduct)
			r.Delete("/{id}", productHandler.DeleteProduct)
			r.Delete("/{id}/colors/{colorId}", productHandler.DeleteColorVariant)
		})
	})

	bannerHandler := NewBannerHandler(bannerService, logger)
	r.Route("/api/v1/banners", func(r chi.Router) {
		r.With(publicCache).Get("/", bannerHandler.ListBanners)

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/", bannerHandler.CreateBanner)
			r.Put("/{id}", bannerHandler.UpdateBanner)
			r.Delete("/{id}", bannerHandler.DeleteBanner)
		})
	})

	return r
}
