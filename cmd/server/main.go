// Command rubrica-server serves the users REST API.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/rubrica/internal/config"
	"github.com/and161185/rubrica/internal/logger"
	"github.com/and161185/rubrica/internal/migrate"
	"github.com/and161185/rubrica/internal/repository"
	"github.com/and161185/rubrica/internal/repository/memory"
	"github.com/and161185/rubrica/internal/repository/postgres"
	httpserver "github.com/and161185/rubrica/internal/server/http"
	"github.com/and161185/rubrica/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, picks a repository and serves HTTP until a
// signal arrives.
func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	// flags override env
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.DSN, "dsn", cfg.DSN, "PostgreSQL DSN (empty: in-memory store)")
	flag.BoolVar(&cfg.Migrate, "migrate", cfg.Migrate, "apply migrations on startup")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown timeout")
	flag.Parse()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg, log)
	if err != nil {
		log.Fatal("open repository", zap.Error(err))
	}
	defer closeRepo()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpserver.New(service.NewUserService(repo), log).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", zap.Error(err))
		closeRepo()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// openRepository returns the Postgres repository when a DSN is set and the
// in-memory one otherwise.
func openRepository(ctx context.Context, cfg *config.Server, log *zap.Logger) (repository.UserRepository, func(), error) {
	if cfg.DSN == "" {
		log.Warn("no DSN configured, using in-memory repository")
		return memory.New(), func() {}, nil
	}
	if cfg.Migrate {
		if err := migrate.Up(ctx, cfg.DSN, log); err != nil {
			return nil, nil, err
		}
	}
	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewUserRepo(db), db.Close, nil
}
