package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"roomchat/internal/capture"
	"roomchat/internal/config"
	"roomchat/internal/constants"
	"roomchat/internal/models"
	"roomchat/internal/service"
	"roomchat/internal/tracing"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	configPath = flag.String("config", "config.json", "Path to configuration file")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("roomchat %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context) error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting roomchat")

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
		}
		logger.SetLevel(level)
	}

	tracer := tracing.NewManager(tracing.Config{
		ServiceName:    "roomchat",
		ServiceVersion: Version,
		Enabled:        cfg.Tracing.Enabled,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		UseStdout:      cfg.Tracing.UseStdout,
		SampleRate:     cfg.Tracing.SampleRate,
	}, logger)
	if err := tracer.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}()

	membership := staticMembership{viewer: cfg.Viewer}
	engine, err := service.NewEngine(cfg, cfg.Viewer, membership, capture.UnavailableDevices(), logger)
	if err != nil {
		return fmt.Errorf("failed to build engine: %w", err)
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close engine cleanly")
		}
	}()

	janitor := service.NewJanitor(engine, 5*time.Minute, constants.DefaultHistoryCacheTTLSec*time.Second, logger)
	go janitor.Start(ctx)
	defer janitor.Stop()

	server := NewServer(engine, cfg.Gateway, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("gateway server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		constants.DefaultGracefulShutdownSec*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("gateway shutdown failed: %w", err)
	}
	return nil
}

// staticMembership is the standalone daemon's membership source: the viewer's
// role comes from configuration and every other author is treated as a plain
// member. Embedding hosts wire their own membership subsystem instead.
type staticMembership struct {
	viewer models.Viewer
}

func (m staticMembership) ViewerRole(roomID string) models.Role {
	if m.viewer.Role == "" {
		return models.RoleMember
	}
	return m.viewer.Role
}

func (m staticMembership) AuthorRole(roomID, authorID string) models.Role {
	if authorID == m.viewer.UserID {
		return m.ViewerRole(roomID)
	}
	return models.RoleMember
}
