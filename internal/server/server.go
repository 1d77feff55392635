package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"ticket-storefront/internal/config"
	"ticket-storefront/internal/handlers"
	"ticket-storefront/internal/middleware"
	"ticket-storefront/internal/models"
	"ticket-storefront/internal/services"
	"ticket-storefront/internal/session"
)

const sweepInterval = 5 * time.Minute

// Server is the storefront HTTP server and the session state it owns
type Server struct {
	httpServer *http.Server
	registry   *session.Registry
	limiter    *middleware.RateLimiter
	logger     *zap.Logger
}

// New builds the storefront from configuration
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server: config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	gateway := services.NewGatewayClient(services.GatewayConfig{
		BaseURL: cfg.Gateway.BaseURL,
		Timeout: cfg.Gateway.Timeout,
		Logger:  logger.Named("gateway"),
	})

	event := models.DefaultEvent(cfg.Event.Slug)
	if title := strings.TrimSpace(cfg.Event.Title); title != "" {
		event.Title = title
	}

	pricing := services.NewPricingService(gateway, cfg.Event.Slug, cfg.Gateway.MaxParallel, logger.Named("pricing"))
	credentials := services.NewCredentialService(gateway, services.CredentialConfig{
		BasicAuthUser:     cfg.Gateway.BasicAuthUser,
		BasicAuthPassword: cfg.Gateway.BasicAuthPassword,
	}, logger.Named("credentials"))
	payments := services.NewPaymentService(gateway, services.PaymentConfig{
		ChannelID:   cfg.Gateway.ChannelID,
		ChannelCode: cfg.Gateway.ChannelCode,
	}, logger.Named("payment"))

	registry := session.NewRegistry(session.Deps{
		Pricing:     pricing,
		Credentials: credentials,
		Payments:    payments,
		Checkout: services.CheckoutConfig{
			EventTitle: event.Title,
			SuccessURL: cfg.Gateway.SuccessURL,
			FailureURL: cfg.Gateway.FailureURL,
		},
		ListPrices: event.ListPrices(),
		Logger:     logger.Named("session"),
	}, cfg.Session.IdleTTL)

	identity := session.NewIdentity(session.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secret: cfg.Session.Secret,
		Secure: cfg.Session.Secure,
	})

	limiter := middleware.NewRateLimiter(cfg.Server.CheckoutLimit, cfg.Server.CheckoutWindow)

	router := NewRouter(RouterConfig{
		Event:          event,
		Pricing:        pricing,
		Identity:       identity,
		Registry:       registry,
		Limiter:        limiter,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		ReturnURL:      cfg.Server.ReturnURL,
		Logger:         logger,
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			// Checkout runs three gateway calls in sequence
			WriteTimeout: 4*cfg.Gateway.Timeout + 10*time.Second,
			IdleTimeout:  2 * time.Minute,
		},
		registry: registry,
		limiter:  limiter,
		logger:   logger.Named("http"),
	}, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the listen address
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the session janitor and serves until Shutdown
func (s *Server) ListenAndServe() error {
	s.registry.StartJanitor(sweepInterval)
	s.logger.Info("storefront listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases background workers
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.limiter.Stop()
	s.registry.Close()
	return err
}

// RouterConfig holds what the router needs to serve requests
type RouterConfig struct {
	Event          models.EventInfo
	Pricing        services.PricingServiceInterface
	Identity       *session.Identity
	Registry       *session.Registry
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
	ReturnURL      string
	Logger         *zap.Logger
}

// NewRouter wires the storefront routes
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	storefrontHandler := handlers.NewStorefrontHandler(cfg.Event, cfg.Pricing)
	cartHandler := handlers.NewCartHandler(cfg.Event)
	checkoutHandler := handlers.NewCheckoutHandler(cfg.Event)
	paymentHandler := handlers.NewPaymentHandler(cfg.ReturnURL)
	sessionMiddleware := middleware.NewSessionMiddleware(cfg.Identity, cfg.Registry)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.SecureHeaders)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(cfg.AllowedOrigins...)))
	}

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	r.Get("/healthz", storefrontHandler.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/event", storefrontHandler.GetEvent)

		r.Group(func(r chi.Router) {
			r.Use(sessionMiddleware.LoadSession)

			r.Get("/currencies", storefrontHandler.ListCurrencies)
			r.Get("/pricing", storefrontHandler.GetPricing)
			r.Put("/pricing/currency", storefrontHandler.SetCurrency)
			r.Post("/pricing/refresh", storefrontHandler.RefreshPricing)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Delete("/", cartHandler.ClearCart)
				r.Post("/tickets", cartHandler.AddTicket)
				r.Patch("/tickets/{id}", cartHandler.UpdateTicket)
				r.Delete("/tickets/{id}", cartHandler.RemoveTicket)
			})

			r.Route("/checkout", func(r chi.Router) {
				if cfg.Limiter != nil {
					r.With(middleware.RateLimit(cfg.Limiter)).Post("/", checkoutHandler.Submit)
				} else {
					r.Post("/", checkoutHandler.Submit)
				}
				r.Get("/status", checkoutHandler.Status)
			})
		})
	})

	r.Route("/payment", func(r chi.Router) {
		r.Use(sessionMiddleware.LoadSession)
		r.Get("/success", paymentHandler.Success)
		r.Get("/failure", paymentHandler.Failure)
	})

	return r
}
