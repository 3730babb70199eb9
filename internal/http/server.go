package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"checkins/internal/core"
	applog "checkins/internal/log"
	"checkins/internal/middleware/ratelimit"
	"checkins/internal/middleware/security"
	"checkins/internal/middleware/trace"
	appweb "checkins/web"
)

// Reports is what the handlers need from the report service.
type Reports interface {
	Users(ctx context.Context) ([]string, error)
	UserCheckins(ctx context.Context, user string) ([]core.CheckIn, error)
	HoursByProject(ctx context.Context) ([]core.ProjectHours, error)
	HoursByEmployee(ctx context.Context) ([]core.EmployeeHours, error)
	HoursByMonth(ctx context.Context) ([]core.MonthHours, error)
	Dashboard(ctx context.Context, sel core.Selection) (core.Dashboard, error)
}

// Pinger reports database reachability for /readyz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	Logger         *applog.Logger
	RateLimitRPM   int
	ReadyTimeout   time.Duration
	TrustedProxies []string // CIDRs, in addition to loopback and private ranges
}

type Server struct {
	http.Server
	templates *template.Template
	reports   Reports
	pinger    Pinger
	logger    *applog.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	readyTimeout time.Duration
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, reports Reports, pinger Pinger, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = 2 * time.Second
	}
	logger := opts.Logger.WithComponent(applog.ComponentHTTP)

	mux := http.NewServeMux()
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", applog.FieldError, err)
		}
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		reports:      reports,
		pinger:       pinger,
		logger:       logger,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector:     detector,
		tracer:       trace.NewMiddleware(opts.Logger, detector.ExtractClientIP),
		readyTimeout: opts.ReadyTimeout,
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates", applog.FieldError, err, applog.FieldComponent, applog.ComponentTemplate)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// Every route below costs at least one database round trip.
	query := func(h http.HandlerFunc) http.Handler {
		return s.limiter.Middleware(s.detector.ExtractClientIP, nil)(security.NoStore(h))
	}
	mux.Handle("GET /{$}", query(s.handleDashboard))
	mux.Handle("GET /api/users", query(s.handleAPIUsers))
	mux.Handle("GET /api/checkins", query(s.handleAPICheckins))
	mux.Handle("GET /api/hours/projects", query(s.handleAPIHoursByProject))
	mux.Handle("GET /api/hours/employees", query(s.handleAPIHoursByEmployee))
	mux.Handle("GET /api/hours/months", query(s.handleAPIHoursByMonth))

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	handlers := applog.ComponentMiddleware(applog.ComponentHTTP)(mux)
	s.Handler = s.tracer.Middleware(s.detector.Middleware(headers.Middleware(handlers)))

	return s
}

// Shutdown gracefully shuts down the server and its background goroutines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.logMetrics()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) logMetrics() {
	traffic := s.tracer.GetMetrics()
	limits := s.limiter.GetMetrics()
	s.logger.Info("Request summary",
		"total_requests", traffic.TotalRequests,
		"last_response_us", traffic.LastResponseTime,
		"rate_limited", limits.TotalHits,
		"tracked_clients", limits.ClientCount,
		"suspicious_requests", s.detector.GetMetrics().SuspiciousRequests,
		applog.FieldOperation, applog.OpShutdown)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger == nil {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.readyTimeout)
	defer cancel()
	if err := s.pinger.Ping(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed",
			applog.FieldError, err,
			applog.FieldErrorType, applog.ErrorTypeDatabase)
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
