package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"wallet/internal/cache"
	"wallet/internal/ledger"
	"wallet/internal/log"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	appweb "wallet/web"
)

// Options configures NewServer. Zero values fall back to sensible defaults.
type Options struct {
	Addr               string
	Logger             *log.Logger
	RateLimitPerMinute int
	CacheSize          int
	CacheTTL           time.Duration
	// Ready reports whether the storage backend is reachable; nil means
	// always ready.
	Ready func(ctx context.Context) error
	Now   func() time.Time
}

type Server struct {
	http.Server

	ledger    *ledger.Manager
	templates *template.Template
	views     *cache.LRUCache[dashboardView]
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *log.Logger
	ready     func(ctx context.Context) error
	now       func() time.Time
}

// NewServer configures routes, middleware and templates around m.
func NewServer(m *ledger.Manager, opts Options) (*Server, error) {
	if m == nil {
		return nil, errors.New("http: nil ledger")
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		ledger:    m,
		templates: t,
		views:     cache.NewLRUCache[dashboardView](opts.CacheSize, opts.CacheTTL),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		tracer:    trace.NewMiddleware(),
		logger:    opts.Logger.WithComponent(log.ComponentHTTP),
		ready:     opts.Ready,
		now:       opts.Now,
	}

	mux := http.NewServeMux()
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssets(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.fresh(s.handleIndex))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	// Plain forms cannot send DELETE.
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)
	mux.HandleFunc("POST /budget", s.handleSetBudget)
	mux.HandleFunc("POST /import", s.handleImport)

	mux.HandleFunc("GET /api/summary", s.fresh(s.handleSummary))
	mux.HandleFunc("GET /api/expenses", s.fresh(s.handleListExpenses))
	mux.HandleFunc("GET /api/charts/categories", s.fresh(s.handleCategoryChart))
	mux.HandleFunc("GET /api/charts/months", s.fresh(s.handleMonthChart))

	mux.HandleFunc("GET /export.json", s.fresh(s.handleExportJSON))
	mux.HandleFunc("GET /export.xlsx", s.fresh(s.handleExportXLSX))

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError("Too many changes, please slow down.").Write(w)
	})(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.detector.Middleware(s.logger.WithComponent(log.ComponentSecurity).Slog())(h)
	h = log.AccessLog(s.detector.ExtractClientIP)(h)
	h = log.RequestIDMiddleware(trace.FromRequest)(h)
	h = log.Middleware(s.logger)(h)
	h = s.tracer.Handler(h)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// fresh reloads the ledger before h, so pages show what CLI commands
// wrote to a shared store. A failed reload serves the last known state.
func (s *Server) fresh(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.ledger.Refresh(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(),
				"Ledger refresh failed, serving last known state", log.FieldError, err)
		}
		h(w, r)
	}
}

// Views exposes the dashboard cache so the caller can sweep it.
func (s *Server) Views() *cache.LRUCache[dashboardView] { return s.views }

// Limiter exposes the rate limiter so the caller can prune it.
func (s *Server) Limiter() *ratelimit.Limiter { return s.limiter }

// Run serves until ctx is cancelled, then shuts down within grace.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.Addr)
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.logger.Info("HTTP server shutting down", log.FieldOperation, log.OpShutdown)
	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
