package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tutu-network/focusera/internal/api"
	"github.com/tutu-network/focusera/internal/app/focus"
	"github.com/tutu-network/focusera/internal/app/progression"
	"github.com/tutu-network/focusera/internal/domain"
	"github.com/tutu-network/focusera/internal/health"
	"github.com/tutu-network/focusera/internal/infra/firestore"
	"github.com/tutu-network/focusera/internal/infra/postgres"
	"github.com/tutu-network/focusera/internal/infra/push"
	"github.com/tutu-network/focusera/internal/infra/sqlite"
)

// Daemon is the focusera runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Local    *sqlite.DB   // outbox and devices, plus profiles with the sqlite driver
	Store    domain.Store // profile and task store selected by storage.driver
	Catalog  *progression.Catalog
	Focus    *focus.Service
	Notifier *focus.Notifier
	Health   *health.Checker
	Limiter  *api.RateLimiter
	Retrier  *push.Retrier // nil unless push delivery is enabled
	Server   *api.Server

	cancel  context.CancelFunc
	logFile *os.File
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Daemon{Config: cfg}

	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		d.logFile = f
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	dataDir := cfg.Storage.Dir
	if dataDir == "" {
		dataDir = focuseraHome()
	}

	// Local SQLite (always)
	local, err := sqlite.Open(dataDir)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.Local = local

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Profile store
	store, err := openStore(ctx, cfg.Storage, local)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Driver, err)
	}
	d.Store = store

	// Era catalog
	d.Catalog = progression.DefaultCatalog()
	if cfg.Progression.CatalogFile != "" {
		c, err := progression.LoadCatalog(cfg.Progression.CatalogFile)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.Catalog = c
		log.Printf("[daemon] era catalog from %s", cfg.Progression.CatalogFile)
	}

	loc, err := cfg.Progression.Location()
	if err != nil {
		d.Close()
		return nil, err
	}

	opts := []focus.Option{focus.WithLocation(loc)}

	// Notifications
	if cfg.Notifications.Enabled {
		var pusher domain.Pusher = push.Log{}
		if cfg.Notifications.Push {
			fcm, err := push.NewFCM(ctx, cfg.Storage.FirebaseProjectID, cfg.Storage.FirebaseCredentials)
			if err != nil {
				log.Printf("[daemon] WARNING: push disabled: %v", err)
			} else {
				d.Retrier = push.NewRetrier(fcm, push.DefaultRetryConfig())
				pusher = d.Retrier
			}
		}
		d.Notifier = focus.NewNotifierWithPolicy(local, pusher, cfg.Notifications.Policy()).
			WithClock(progression.SystemClock{}, loc)
		opts = append(opts, focus.WithNotifier(d.Notifier))
	}

	d.Focus = focus.NewService(store, d.Catalog, opts...)

	// Health checker
	d.Health = health.NewChecker(store, local, dataDir).
		WithInterval(parseDuration(cfg.Telemetry.HealthInterval, time.Minute))

	// API server
	var verify api.TokenVerifier
	if cfg.Auth.ClerkSecretKey != "" {
		verify = api.ClerkVerifier(cfg.Auth.ClerkSecretKey)
	}
	srv := api.NewServer(d.Focus, api.NewAuth(verify))
	srv.SetHealth(d.Health)
	srv.SetAllowedOrigins(cfg.API.CORSOrigins)
	if cfg.API.RateLimit > 0 {
		d.Limiter = api.NewRateLimiter(cfg.API.RateLimit, max(cfg.API.RateBurst, 1))
		srv.SetRateLimiter(d.Limiter)
	}

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Prometheus {
		srv.EnableMetrics()
	}
	d.Server = srv

	return d, nil
}

// openStore opens the configured profile store. The sqlite driver reuses
// the local database.
func openStore(ctx context.Context, cfg StorageConfig, local *sqlite.DB) (domain.Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		pc := postgres.DefaultPoolConfig()
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			pc.MinConns = cfg.MinConns
		}
		s, err := postgres.Open(ctx, cfg.PostgresURL, pc)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverFirestore:
		fc := firestore.Config{ProjectID: cfg.FirebaseProjectID}
		if cfg.FirebaseCredentials != "" {
			fc.CredentialsFile = expandHome(cfg.FirebaseCredentials)
		}
		s, err := firestore.Open(ctx, fc)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return local, nil
	}
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Background loops stop with ctx
	go d.Health.Run(ctx)
	if d.Retrier != nil {
		go d.Retrier.Run(ctx, time.Second)
	}
	if d.Limiter != nil {
		go d.Limiter.Cleanup(ctx)
	}

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	go func() {
		defer close(done)
		select {
		case sig := <-sigCh:
			log.Printf("[daemon] got %s, shutting down", sig)
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[daemon] shutdown: %v", err)
		}
		cancel()
	}()

	fmt.Printf("focusera serving on http://%s\n", addr)
	fmt.Printf("  Storage: %s\n", d.Config.Storage.Driver)
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	err := httpServer.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		cancel()
		return err
	}
	<-done
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Store != nil && d.Store != domain.Store(d.Local) {
		_ = d.Store.Close()
	}
	if d.Local != nil {
		_ = d.Local.Close()
	}
	if d.logFile != nil {
		log.SetOutput(os.Stderr)
		_ = d.logFile.Close()
	}
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if len(path) < 2 || path[:2] != "~/" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
