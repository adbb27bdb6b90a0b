// Package server wires the introductions runtime and HTTP lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/introhub/internal/platform/config"
	"github.com/louisbranch/introhub/internal/platform/metrics"
	"github.com/louisbranch/introhub/internal/platform/ratelimit"
	"github.com/louisbranch/introhub/internal/services/introductions/api/rest"
	"github.com/louisbranch/introhub/internal/services/introductions/auth"
	"github.com/louisbranch/introhub/internal/services/introductions/notify"
	introsqlite "github.com/louisbranch/introhub/internal/services/introductions/storage/sqlite"
	"github.com/louisbranch/introhub/internal/services/introductions/token"
	"github.com/louisbranch/introhub/internal/services/introductions/workflow"
)

const shutdownTimeout = 10 * time.Second

type serverEnv struct {
	DBPath            string        `env:"INTROHUB_DB_PATH"`
	TokenTTL          time.Duration `env:"INTROHUB_TOKEN_TTL"`
	NATSURL           string        `env:"INTROHUB_NATS_URL"`
	NATSSubjectPrefix string        `env:"INTROHUB_NATS_SUBJECT_PREFIX"`
	AuthPublicKey     string        `env:"INTROHUB_AUTH_PUBLIC_KEY"`
	TokenRateRPS      float64       `env:"INTROHUB_TOKEN_RATE_RPS" envDefault:"5"`
	TokenRateBurst    int           `env:"INTROHUB_TOKEN_RATE_BURST" envDefault:"10"`
}

func loadServerEnv() serverEnv {
	var cfg serverEnv
	_ = config.ParseEnv(&cfg)
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "introductions.db")
	}
	return cfg
}

// Server hosts the introductions HTTP API and storage lifecycle.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	store      *introsqlite.Store
	dispatcher *notify.Dispatcher
	nats       *notify.NATSTrigger
}

// New creates a configured introductions server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured introductions server for the provided address.
func NewWithAddr(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srvEnv := loadServerEnv()

	store, err := openIntroductionsStore(srvEnv.DBPath)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	registry := metrics.New()

	var natsTrigger *notify.NATSTrigger
	var trigger notify.Trigger = notify.LogTrigger{}
	if strings.TrimSpace(srvEnv.NATSURL) != "" {
		natsTrigger, err = notify.NewNATSTrigger(srvEnv.NATSURL, srvEnv.NATSSubjectPrefix)
		if err != nil {
			_ = listener.Close()
			_ = store.Close()
			return nil, fmt.Errorf("connect notification broker: %w", err)
		}
		trigger = natsTrigger
	}
	dispatcher := notify.NewDispatcher(trigger, notify.DispatcherOptions{Drops: registry})

	engine := workflow.NewEngine(store, token.NewService(srvEnv.TokenTTL, nil, nil), dispatcher, workflow.Options{
		Transitions: registry,
	})

	var verifier *auth.Verifier
	if strings.TrimSpace(srvEnv.AuthPublicKey) != "" {
		authCfg, err := auth.LoadConfigFromEnv(nil)
		if err != nil {
			_ = listener.Close()
			_ = store.Close()
			dispatcher.Close()
			return nil, fmt.Errorf("load auth config: %w", err)
		}
		verifier = auth.NewVerifier(authCfg)
	} else {
		log.Printf("INTROHUB_AUTH_PUBLIC_KEY is not set; bearer endpoints disabled")
	}

	limiter := ratelimit.New(srvEnv.TokenRateRPS, srvEnv.TokenRateBurst, 0)

	mux := http.NewServeMux()
	rest.NewHandler(engine, verifier, limiter, registry).Register(mux)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", registry.Handler())

	return &Server{
		listener:   listener,
		httpServer: &http.Server{Handler: mux},
		store:      store,
		dispatcher: dispatcher,
		nats:       natsTrigger,
	}, nil
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves an introductions server until context cancellation.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the HTTP server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("introductions server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases introductions server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.httpServer != nil {
		_ = s.httpServer.Close()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	if s.dispatcher != nil {
		s.dispatcher.Close()
	}
	if s.nats != nil {
		s.nats.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Printf("close introductions store: %v", err)
		}
	}
}

func openIntroductionsStore(path string) (*introsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := introsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open introductions sqlite store: %w", err)
	}
	return store, nil
}
