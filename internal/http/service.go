package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	apicontract "github.com/tuanvumaihuynh/product-catalog/api-contract"
	"github.com/tuanvumaihuynh/product-catalog/internal/auth"
	"github.com/tuanvumaihuynh/product-catalog/internal/config"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/apierr"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/metric"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/middleware"
	"github.com/tuanvumaihuynh/product-catalog/internal/http/swagger"
	"github.com/tuanvumaihuynh/product-catalog/internal/service"
	"github.com/tuanvumaihuynh/product-catalog/internal/storage/db"
	"github.com/tuanvumaihuynh/product-catalog/pkg/validator"
)

var tracer = otel.Tracer("internal/http")

// Services groups the domain services the HTTP layer serves.
type Services struct {
	Product  service.ProductService
	Supplier service.SupplierService
	History  service.HistoryService
}

// Service represents the HTTP service.
type Service struct {
	cfg        config.HTTP
	authCfg    config.Auth
	catalogCfg config.Catalog
	logger     *slog.Logger
	metrics    *metric.Metrics
	validator  validator.Validator
	verifier   *auth.Verifier
	health     db.HealthChecker

	services Services
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	authCfg config.Auth,
	catalogCfg config.Catalog,
	log *slog.Logger,
	health db.HealthChecker,
	services Services,
) (*Service, error) {
	if err := authCfg.Validate(); err != nil {
		return nil, err
	}

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("new validator: %w", err)
	}

	s := &Service{
		cfg:        cfg,
		authCfg:    authCfg,
		catalogCfg: catalogCfg,
		logger:     log.With(slog.String("service", "http")),
		metrics:    metric.New(),
		validator:  v,
		health:     health,
		services:   services,
	}
	if authCfg.JWTSecret != "" {
		s.verifier = auth.NewVerifier(authCfg)
	}

	return s, nil
}

// Handler builds the router with every middleware and route registered.
func (s *Service) Handler() (http.Handler, error) {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	if err := s.RegisterHandlers(r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	handler, err := s.Handler()
	if err != nil {
		return nil, err
	}

	return s.RunWithServer(ctx, handler)
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", slog.Any("error", err))
		}
	}()

	s.logger.Info("http server listening", slog.String("addr", srv.Addr))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.CorrelationID(),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.Cors(s.cfg.CORSAllowedOrigin),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) error {
	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))

	sys := &systemHandler{health: s.health}
	r.Get("/health", s.handle(sys.Health))

	var validate func(http.Handler) http.Handler
	if s.cfg.OpenAPIValidation {
		doc, err := apicontract.Load(context.Background())
		if err != nil {
			return err
		}
		if validate, err = middleware.OpenAPIValidator(doc, s.writeError); err != nil {
			return err
		}
	}

	products := &productHandler{cfg: s.catalogCfg, v: s.validator, svc: s.services.Product}
	suppliers := &supplierHandler{cfg: s.catalogCfg, v: s.validator, svc: s.services.Supplier}
	history := &historyHandler{cfg: s.catalogCfg, svc: s.services.History}

	r.Group(func(r chi.Router) {
		if s.verifier != nil {
			r.Use(middleware.Authenticate(s.verifier, s.authCfg.Enabled, s.writeError))
		}
		if validate != nil {
			r.Use(validate)
		}

		r.Get("/auth/me", s.handle(sys.Me))
		r.Get("/admin/products", s.handle(sys.AdminProducts))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.handle(products.List))
			r.Post("/", s.handle(products.Create))
			r.Get("/search", s.handle(products.Search))
			r.Get("/low-stock", s.handle(products.LowStock))
			r.Get("/statistics", s.handle(products.Statistics))
			r.Post("/batch", s.handle(products.BatchCreate))
			r.Put("/batch", s.handle(products.BatchUpdate))
			r.Delete("/batch", s.handle(products.BatchDelete))

			r.Route("/{product_id}", func(r chi.Router) {
				r.Get("/", s.handle(products.Get))
				r.Put("/", s.handle(products.Update))
				r.Delete("/", s.handle(products.Delete))
				r.Get("/suppliers", s.handle(products.Suppliers))
				r.Post("/suppliers/{supplier_id}", s.handle(products.AddSupplier))
				r.Delete("/suppliers/{supplier_id}", s.handle(products.RemoveSupplier))
			})
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", s.handle(suppliers.List))
			r.Post("/", s.handle(suppliers.Create))
			r.Get("/top-rated", s.handle(suppliers.TopRated))
			r.Post("/batch/create", s.handle(suppliers.BatchCreate))
			r.Put("/batch/update", s.handle(suppliers.BatchUpdate))
			r.Post("/batch/delete", s.handle(suppliers.BatchDelete))

			r.Route("/{supplier_id}", func(r chi.Router) {
				r.Get("/", s.handle(suppliers.Get))
				r.Put("/", s.handle(suppliers.Update))
				r.Delete("/", s.handle(suppliers.Delete))
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/price/{product_id}", s.handle(history.Price))
			r.Get("/stock/{product_id}", s.handle(history.Stock))
			r.Get("/combined/{product_id}", s.handle(history.Combined))
		})
	})

	return nil
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			s.writeError(w, r, err)
		}
	}
}

func (s *Service) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error",
		slog.Int("status", res.StatusCode),
		slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
