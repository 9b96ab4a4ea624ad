package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/bluejays/teamtrack/internal/auth"
	"github.com/bluejays/teamtrack/internal/config"
	"github.com/bluejays/teamtrack/internal/drill"
	"github.com/bluejays/teamtrack/internal/logging"
	"github.com/bluejays/teamtrack/internal/team"
	"github.com/bluejays/teamtrack/web"
)

// Config holds server configuration options.
type Config struct {
	Port             int
	TeamPasswordHash string // empty means no team password
	AllowGuests      bool
	TokenTTL         time.Duration

	// Drill is the template for each member's drill. Sink is replaced per
	// member by the result recorder.
	Drill drill.Options

	RateLimit RateLimitConfig

	// ResultBuffer is how many drill results may wait for the store.
	ResultBuffer int

	// Assets holds the browser client. Defaults to the embedded build.
	Assets fs.FS
}

const (
	defaultResultBuffer = 64
	shutdownTimeout     = 5 * time.Second
	cleanupInterval     = 10 * time.Minute
)

// Server is the teamtrack HTTP API.
type Server struct {
	cfg      Config
	team     *team.Service
	sessions *auth.Sessions
	recorder *recorder
	drills   *drillRegistry

	authLimit  *rateLimiter
	coachLimit *rateLimiter
	upgrader   websocket.Upgrader
	router     *mux.Router
	assets     fs.FS

	// stopping is closed by Stop to end background work and live feeds.
	stopping chan struct{}
	stopOnce sync.Once
	bg       sync.WaitGroup

	mu       sync.RWMutex
	server   *http.Server
	listener net.Listener
	started  bool
}

// NewServer creates a Server over svc.
func NewServer(cfg *Config, svc *team.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if svc == nil {
		return nil, errors.New("team service is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	if cfg.Drill.Duration <= 0 {
		return nil, fmt.Errorf("drill duration must be positive: %w", drill.ErrInvalidDuration)
	}

	buffer := cfg.ResultBuffer
	if buffer <= 0 {
		buffer = defaultResultBuffer
	}
	rec := newRecorder(svc, buffer)

	assets := cfg.Assets
	if assets == nil {
		assets = web.GetAssets("")
	}

	sessions := auth.NewSessions(cfg.TokenTTL)
	s := &Server{
		cfg:        *cfg,
		team:       svc,
		sessions:   sessions,
		recorder:   rec,
		drills:     newDrillRegistry(cfg.Drill, rec, sessions.Active),
		authLimit:  newRateLimiter("auth", cfg.RateLimit),
		coachLimit: newRateLimiter("coach", cfg.RateLimit),
		assets:     assets,
		stopping:   make(chan struct{}),
	}
	s.router = s.routes()
	return s, nil
}

// NewServerFromConfig creates a Server from the loaded configuration.
func NewServerFromConfig(cfg *config.Config, svc *team.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}

	opts := drill.DefaultOptions()
	opts.Duration = cfg.Drill.DurationSeconds
	opts.GridSize = cfg.Drill.GridSize

	return NewServer(&Config{
		Port:             cfg.Server.Port,
		TeamPasswordHash: cfg.Server.TeamPasswordHash,
		AllowGuests:      cfg.Server.AllowGuests,
		TokenTTL:         cfg.Server.TokenTTL,
		Drill:            opts,
		RateLimit:        DefaultRateLimitConfig(),
	}, svc)
}

// Port returns the configured port.
func (s *Server) Port() int {
	return s.cfg.Port
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves HTTP until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.New("server already started")
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.started = true
	s.mu.Unlock()

	s.runBackground(ctx)

	go func() {
		select {
		case <-ctx.Done():
			if err := s.Stop(); err != nil {
				logging.Error("failed to stop server", "error", err)
			}
		case <-s.stopping:
		}
	}()

	logging.Info("server listening", "addr", listener.Addr().String())
	err = s.server.Serve(listener)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	// Serve returns as soon as shutdown begins; wait for Stop to flush
	// pending results before the caller closes the store.
	return s.Stop()
}

// runBackground starts token expiry and rate limiter cleanup.
func (s *Server) runBackground(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.bg.Add(2)
	go func() {
		defer s.bg.Done()
		<-s.stopping
		cancel()
	}()
	go func() {
		defer s.bg.Done()
		s.sessions.Run(ctx, cleanupInterval, func(uids []string) {
			for _, uid := range uids {
				s.drills.close(uid)
			}
			logging.Debug("expired sessions", "count", len(uids))
		})
	}()

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.authLimit.cleanup()
				s.coachLimit.cleanup()
			}
		}
	}()
}

// Stop shuts the server down: HTTP first, then every drill session, then
// the result recorder once it has flushed pending results.
func (s *Server) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.stopping)

		s.mu.Lock()
		srv := s.server
		s.started = false
		s.mu.Unlock()

		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
				err = fmt.Errorf("shutdown error: %w", shutdownErr)
			}
		}

		s.drills.closeAll()
		s.recorder.Close()
		s.bg.Wait()
	})
	return err
}

// ListenAddr returns the address the server is listening on, or "" if not
// started. Useful with port 0.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}
