package webhook

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hacktaika/internal/notifier"
	rtsup "hacktaika/internal/runtime/supervisor"
	"hacktaika/internal/submission"
	logx "hacktaika/pkg/logx"
)

const (
	SecretHeader = "X-Webhook-Secret"
	ServiceName  = "telegram-bot-webhook"
)

// Notifier is what the listener needs from the notifier service.
type Notifier interface {
	NotifyBasicSubmission(ctx context.Context, b submission.Basic) notifier.Result
	NotifyDetailedSubmission(ctx context.Context, d submission.Detailed) notifier.Result
}

type Config struct {
	Addr         string
	Secret       string
	MaxBodyBytes int64

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server is the HTTP listener for the website backend.
type Server struct {
	cfg      Config
	notifier Notifier
	log      logx.Logger
	router   chi.Router

	mu   sync.Mutex
	srv  *http.Server
	ln   net.Listener
	sup  *rtsup.Supervisor
	addr string
}

func New(cfg Config, n Notifier, log logx.Logger) (*Server, error) {
	if cfg.Secret == "" {
		return nil, errors.New("webhook secret is empty")
	}
	if n == nil {
		return nil, errors.New("webhook notifier is nil")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{cfg: cfg, notifier: n, log: log.With(logx.String("comp", "webhook"))}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLog)
	r.Use(s.recoverer)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed"})
	})

	r.Get("/health", s.handleHealth)
	r.Route("/webhook", func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Use(s.limitBody)
		r.Post("/order", s.handleOrder)
		r.Post("/application", s.handleApplication)
	})
	return r
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Endpoints lists the registered routes as "METHOD /path".
func (s *Server) Endpoints() []string {
	var out []string
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		out = append(out, method+" "+strings.TrimSuffix(route, "/*"))
		return nil
	})
	sort.Strings(out)
	return out
}

// Start binds the listener and serves in the background until Stop or ctx is done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.srv != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("webhook listen %s: %w", s.cfg.Addr, err)
	}
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}
	// A dead listener cancels sup so Done fires and the owner can stop.
	sup := rtsup.NewSupervisor(ctx, rtsup.WithLogger(s.log), rtsup.WithCancelOnError(true))

	s.srv, s.ln, s.sup, s.addr = srv, ln, sup, ln.Addr().String()

	sup.Go("http.serve", func(context.Context) error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("webhook server stopped", logx.Err(err))
			return err
		}
		return nil
	})
	sup.Go0("http.shutdown_on_cancel", func(c context.Context) {
		<-c.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	})

	s.log.Info("webhook listener started",
		logx.String("addr", s.addr),
		logx.Any("endpoints", s.Endpoints()),
	)
	return nil
}

// Addr is the bound address once started (useful with port 0).
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Done is closed once the listener has stopped serving, either through Stop,
// the parent context or a Serve failure. It is closed already when not started.
func (s *Server) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.sup.Context().Done()
}

// Err is the Serve failure that ended the listener, if any.
func (s *Server) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sup == nil {
		return nil
	}
	return s.sup.Err()
}

// Stop drains in-flight requests within ctx, then closes the listener.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv, sup := s.srv, s.sup
	s.srv, s.ln, s.sup = nil, nil, nil
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	err := srv.Shutdown(ctx)
	if err != nil {
		_ = srv.Close()
	}
	if werr := sup.Stop(ctx); werr != nil && err == nil {
		err = werr
	}
	s.log.Info("webhook listener stopped")
	return err
}
