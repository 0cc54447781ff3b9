// Package ui serves the SamajhAI dashboard: upload or link a dataset, read
// its profile, ask a model about it and chart it.
package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/KaramelBytes/samajhai/internal/chart"
	"github.com/KaramelBytes/samajhai/internal/insight"
)

// Server is the dashboard HTTP server.
type Server struct {
	addr      string
	cfg       Config
	sessions  *sessionStates
	logger    *slog.Logger
	templates *templates
}

// Config holds configuration for the dashboard server.
type Config struct {
	Addr           string
	Title          string
	SessionSecret  string
	SessionTTL     time.Duration
	MaxUploadBytes int64
	PreviewRows    int

	// CookieSecure marks the session cookie Secure; set it only when the
	// dashboard is reached over TLS.
	CookieSecure bool

	Requester   *insight.Requester
	Renderer    chart.Renderer
	SheetClient *http.Client
	Logger      *slog.Logger
}

// NewServer creates a dashboard server. A missing session secret gets a
// random one, which invalidates cookies across restarts.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Requester == nil {
		return nil, errors.New("ui: insight requester is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Renderer == nil {
		cfg.Renderer = chart.NewSVGRenderer()
	}
	if cfg.SheetClient == nil {
		cfg.SheetClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = time.Hour
	}
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		secret = securecookie.GenerateRandomKey(32)
		cfg.Logger.Warn("session_secret not set; using a random key for this run")
	}
	store := sessions.NewCookieStore(secret)
	store.MaxAge(int(cfg.SessionTTL.Seconds()))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode
	store.Options.Secure = cfg.CookieSecure

	tpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{
		addr:      cfg.Addr,
		cfg:       cfg,
		sessions:  newSessionStates(store, cfg.SessionTTL, cfg.Logger),
		logger:    cfg.Logger,
		templates: tpl,
	}, nil
}

// Handler returns the dashboard's routes wrapped in the standard middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)
	r.Get("/", s.HandlePage)
	r.Post("/load", s.HandleLoad)
	r.Post("/chart", s.HandleChart)
	r.Get("/chart.svg", s.HandleChartSVG)
	r.Post("/insights/{kind}", s.HandleInsight)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting dashboard", "addr", "http://"+ln.Addr().String())

	eg, egctx := errgroup.WithContext(ctx)
	srv := &http.Server{
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		return s.sessions.janitor(egctx)
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Debug("shutting down dashboard...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
