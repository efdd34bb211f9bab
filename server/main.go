package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/devilmonastery/multioauth/internal/auth"
	"github.com/devilmonastery/multioauth/internal/auth/oidc"
	"github.com/devilmonastery/multioauth/internal/domain/services"
	"github.com/devilmonastery/multioauth/internal/events"
	"github.com/devilmonastery/multioauth/internal/pkg/logger"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/handlers"
	"github.com/devilmonastery/multioauth/server/internal/httpapi/middleware"
	"github.com/devilmonastery/multioauth/server/internal/session"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		forceVersion  int
		configPath    string
		logLevel      string
		logFile       string
		logToFile     bool
		logToStderr   bool
		alsoLogStderr bool
		logFormat     string
	)

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Multi-provider OAuth2 login service",
		Long:  "Serves per-provider OAuth2/OIDC login endpoints and the strategy admin API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupServerLogging(logLevel, resolveLogFile(logFile, logToFile), logToStderr, alsoLogStderr, logFormat)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), configPath, forceVersion)
		},
	}

	cmd.Flags().IntVar(&forceVersion, "force-migration", -1, "Force migration version (use to fix dirty migration state)")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (optional)")

	// Add logging flags
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log file path (if specified, logs to file instead of stderr)")
	cmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Log to the per-user default log file when --log-file is not set")
	cmd.PersistentFlags().BoolVar(&logToStderr, "logtostderr", false, "Log to stderr (default behavior unless --log-file specified)")
	cmd.PersistentFlags().BoolVar(&alsoLogStderr, "alsologtostderr", false, "Log to both file and stderr")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format (text, json)")

	// Add subcommands
	cmd.AddCommand(newStrategyCommand(&configPath))
	cmd.AddCommand(newUserCommand(&configPath))

	return cmd
}

// resolveLogFile returns the explicit log file, or the default one when
// useDefault is set and no file was given
func resolveLogFile(logFile string, useDefault bool) string {
	if logFile == "" && useDefault {
		return logger.GetDefaultLogFile("server")
	}
	return logFile
}

// commandLogger scopes the default logger to the running subcommand
func commandLogger(cmd *cobra.Command) *slog.Logger {
	return logger.WithCommand(slog.Default(), cmd.CommandPath())
}

// setupServerLogging configures the global logger for the server
func setupServerLogging(logLevel, logFile string, logToStderr, alsoLogStderr bool, logFormat string) error {
	// Default to stderr logging unless file is specified
	if logFile == "" {
		logToStderr = true
	}

	cfg := logger.Config{
		Level:         logger.ParseLevel(logLevel),
		LogFile:       logFile,
		LogToStderr:   logToStderr,
		AlsoLogStderr: alsoLogStderr,
		Format:        logFormat,
	}

	globalLogger, err := logger.SetupLogger(cfg)
	if err != nil {
		return err
	}

	slog.SetDefault(globalLogger)
	return nil
}

func runServer(ctx context.Context, configPath string, forceVersion int) error {
	log := slog.Default().With("component", "server")
	log.Info("starting server initialization")

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	b, err := openBackends(ctx, configPath, forceVersion)
	if errors.Is(err, errMigrationForced) {
		log.Info("migration version forced, exiting", "version", forceVersion)
		return nil
	}
	if err != nil {
		return err
	}
	defer b.Close()
	cfg := b.cfg

	// The registry owns the live handler set; every handler shares one
	// client so provider calls honour the configured timeout
	providerClient := &http.Client{Timeout: cfg.Discovery.Timeout}
	registry := oidc.NewRegistry(b.strategies, cfg.Server.BaseURL, providerClient)
	if err := registry.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load strategies: %w", err)
	}
	log.Info("strategies loaded", "count", len(registry.Names()), "names", registry.Names())

	discoverer := oidc.NewDiscoverer(cfg.Discovery.CacheTTL, cfg.Discovery.Timeout)

	bus := events.NewBus()
	bus.Subscribe(events.LoginSucceeded, func(ctx context.Context, ev events.Event) error {
		logger.WithProvider(slog.Default(), ev.Provider).Info("login event", "uid", ev.UserID)
		return nil
	})

	groupSync := services.NewGroupSynchronizer(b.groups, b.settings)
	login := services.NewLoginService(
		services.NewIdentityLinker(b.users, b.links),
		groupSync,
		services.NewProfileSynchronizer(b.users),
		bus,
	)

	jwtManager := auth.NewJWTManager(cfg.Session.JWTSigningKey(), cfg.Session.Lifetime)
	sessions := session.NewManager([]byte(cfg.Session.Secret), jwtManager, cfg.Session.Lifetime, cfg.Session.SecureCookie)

	h := handlers.New(handlers.Deps{
		Strategies: services.NewStrategyService(b.strategies, registry, discoverer),
		Login:      login,
		Groups:     groupSync,
		UserData:   services.NewUserDataService(b.strategies, b.users, b.links),
		Registry:   registry,
		Sessions:   sessions,
		Users:      b.users,
		Health:     b.Ping,
	}, slog.Default())

	authMw := middleware.NewAuthMiddleware(sessions, b.groups, slog.Default())

	router := mux.NewRouter()
	router.Use(authMw.Authenticate)
	router.Use(middleware.LogRequest(slog.Default(), cfg.Metrics.Path))
	if cfg.Metrics.Enabled {
		router.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods("GET")
	}
	h.Register(router, authMw)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server starting", "address", srv.Addr, "base_url", cfg.Server.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve http: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	bus.Wait()
	return nil
}
