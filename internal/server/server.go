package server

import (
	"context"
	"database/sql"
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"shopease/internal/config"
	"shopease/internal/database"
	"shopease/internal/invoice"
	custommiddleware "shopease/internal/middleware"
	"shopease/internal/repository"
	"shopease/internal/service"
	"shopease/internal/storage"
	"shopease/internal/transport"
	"shopease/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Deps are the long-lived resources the server is built on. Redis and DB
// are optional; Store is required.
type Deps struct {
	Store  *storage.Store
	Redis  *redis.Client
	DB     *sql.DB
	Footer template.HTML
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) (*Server, error) {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	// Health check endpoint
	router.Get("/health", healthHandler(deps))

	// Static files
	assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(cfg.Store.AssetsDir)))
	router.Handle("/assets/*", assets)

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(repository.DefaultProducts())
	cartRepo := repository.NewCartRepository(deps.Store)
	userRepo := repository.NewUserRepository(deps.Store)
	sessionRepo := repository.NewSessionRepository(deps.Store)

	loc, err := time.LoadLocation(cfg.Store.Location)
	if err != nil {
		logger.Warn("Unknown store location, using local time", zap.String("location", cfg.Store.Location), zap.Error(err))
		loc = time.Local
	}
	lang, err := language.Parse(cfg.Store.Language)
	if err != nil {
		logger.Warn("Unknown store language, using English", zap.String("language", cfg.Store.Language), zap.Error(err))
		lang = language.English
	}

	// Initialize services
	cartService := service.NewCartService(catalogRepo, cartRepo, logger)
	authService := service.NewAuthService(userRepo, sessionRepo, cfg.Auth.HashPasswords, logger)
	notifier := service.NewNotifier(deps.Store, logger)
	services := transport.Services{
		Catalog:    service.NewCatalogService(catalogRepo, lang),
		Cart:       cartService,
		Auth:       authService,
		Checkout:   service.NewCheckoutService(authService, cartService, deps.Store, loc, logger),
		Theme:      service.NewThemeService(deps.Store, logger),
		Newsletter: service.NewNewsletterService(notifier, logger),
		Notifier:   notifier,
	}

	renderer, err := view.New(view.Options{
		StoreName: cfg.Store.Name,
		Currency:  cfg.Store.Currency,
		LogoPath:  cfg.Store.LogoPath,
		Footer:    deps.Footer,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	docs := transport.Documents{
		Invoices: invoice.NewPDFRenderer(invoice.PDFOptions{
			StoreName: cfg.Store.Name,
			LogoPath:  cfg.Store.LogoPath,
			ImageRoot: filepath.Dir(filepath.Clean(cfg.Store.AssetsDir)),
			Website:   "www.shopease.com",
			Compress:  true,
		}, logger),
		InvoiceFilename: cfg.Store.InvoiceFilename,
	}

	// Initialize handlers
	pageHandler := transport.NewPageHandler(services, docs, renderer, logger)
	apiHandler := transport.NewAPIHandler(services, logger)

	authLimiter := rateLimiter(cfg, deps.Redis, logger)

	// Register routes
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.VisitorMiddleware(custommiddleware.VisitorConfig{
			Secret:     cfg.Auth.VisitorSecret,
			CookieName: cfg.Auth.VisitorCookie,
			MaxAge:     time.Duration(cfg.Auth.VisitorExpiry) * 24 * time.Hour,
			Secure:     cfg.Auth.SecureCookies,
		}, logger))
		r.Use(custommiddleware.LoggingMiddleware(logger))

		pageHandler.RegisterRoutes(r, authLimiter)
		apiHandler.RegisterRoutes(r, authLimiter)
	})

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server, nil
}

// rateLimiter returns the login/signup limiter, or nil when disabled
func rateLimiter(cfg *config.Config, client *redis.Client, logger *zap.Logger) func(http.Handler) http.Handler {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if client == nil {
		logger.Warn("Rate limiting enabled without Redis; requests will not be limited")
		return nil
	}
	return custommiddleware.RateLimitMiddleware(client, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         cfg.Redis.KeyPrefix + "ratelimit",
	}, logger)
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]interface{}{"status": "ok"}

		if deps.DB != nil {
			db := database.Health(r.Context(), deps.DB)
			body["database"] = db
			if db["status"] != "up" {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		if deps.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), time.Second)
			err := deps.Redis.Ping(ctx).Err()
			cancel()
			if err != nil {
				body["redis"] = map[string]string{"status": "down", "error": err.Error()}
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			} else {
				body["redis"] = map[string]string{"status": "up"}
			}
		}

		custommiddleware.RespondWithJSON(w, status, body)
	}
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Closing the store closes the client or connection it is built on
	if err := s.deps.Store.Close(); err != nil {
		s.logger.Error("Failed to close storage", zap.Error(err))
	}

	if s.deps.Redis != nil && s.config.Storage.Driver != "redis" {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
