package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/claude/fittrack/internal/config"
	"github.com/claude/fittrack/internal/ingest/alpha"
	"github.com/claude/fittrack/internal/livesession"
	"github.com/claude/fittrack/internal/logging"
	fitmcp "github.com/claude/fittrack/internal/mcp"
	"github.com/claude/fittrack/internal/metrics"
	"github.com/claude/fittrack/internal/plans"
	"github.com/claude/fittrack/internal/progress"
	"github.com/claude/fittrack/internal/records"
	"github.com/claude/fittrack/internal/server"
	"github.com/claude/fittrack/internal/storage"
	"github.com/claude/fittrack/internal/workouts"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"tailscale.com/tsnet"
)

// Version is set at build time via -ldflags.
var Version = "dev"

const (
	sessionSweepInterval = time.Minute
	sessionMaxIdle       = 4 * time.Hour
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, logCloser := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Stdout:     cfg.Log.Stdout,
	})
	log.Info("FitTrack starting", "version", Version)

	err = run(cfg, *migrateOnly, log)
	if err != nil {
		log.Error("fatal", "error", err)
	}
	logCloser.Close()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, migrateOnly bool, log *slog.Logger) error {
	dsn := cfg.Database.DSN()
	if err := storage.RunMigrations(dsn, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	log.Info("migrations applied")
	if migrateOnly {
		log.Info("migrate-only: exiting")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting database: %w", err)
	}
	defer db.Close()
	db.WithCatalogCache(storage.NewPlanCatalogCache(cfg.Cache.PlanCatalogMB, cfg.Cache.TTL(), log))
	log.Info("database connected")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewManager(reg)

	// Services
	ws := workouts.NewService(db, records.NewEvaluator(db, m, log), m, log)
	ps := plans.NewService(db, m, log)
	prog := progress.NewService(db, ps, log)
	sessions := livesession.NewManager(m, log)
	go sessions.Run(ctx, sessionSweepInterval, sessionMaxIdle)

	srv := server.New(db, server.Services{
		Workouts: ws,
		Plans:    ps,
		Progress: prog,
		Sessions: sessions,
		Importer: alpha.NewImporter(db, ws, m, log),
	}, m, cfg.Auth.APIKey, log)

	if cfg.Metrics.Enabled {
		srv.MountPublic("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// MCP over streamable HTTP, scoped to the caller resolved by the server.
	mcpSrv := fitmcp.New(fitmcp.NewLocal(db, ps, prog), Version, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcpSrv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if id, ok := server.UserID(r.Context()); ok {
				return fitmcp.WithUserID(ctx, id)
			}
			return ctx
		}),
	))

	// Listen on the tailnet, or plain HTTP in dev mode.
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			return fmt.Errorf("tsnet start: %w", err)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			return fmt.Errorf("tsnet local client: %w", err)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			return fmt.Errorf("tsnet listen: %w", err)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		srv.SetDevUser(cfg.Server.DevUser)
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", addr, err)
		}
		log.Info("server starting", "addr", addr, "mode", "dev (no tailscale)", "dev_user", cfg.Server.DevUser)
	}

	httpSrv := &http.Server{Handler: srv}
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpSrv.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Info("shutting down")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
	return nil
}
