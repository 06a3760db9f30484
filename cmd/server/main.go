package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Simplici0/invoice-roi/internal/config"
	"github.com/Simplici0/invoice-roi/internal/db"
	"github.com/Simplici0/invoice-roi/internal/logger"
	"github.com/Simplici0/invoice-roi/internal/mailer"
	"github.com/Simplici0/invoice-roi/internal/metrics"
	"github.com/Simplici0/invoice-roi/internal/migrations"
	"github.com/Simplici0/invoice-roi/internal/report"
	"github.com/Simplici0/invoice-roi/internal/seed"
	"github.com/Simplici0/invoice-roi/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to a config file; defaults to config.yaml in . or ./configs")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := migrations.Up(ctx, database, cfg.Database.Driver); err != nil {
		return fmt.Errorf("run database migrations: %w", err)
	}
	version, err := migrations.Version(ctx, database, cfg.Database.Driver)
	if err != nil {
		return err
	}
	log.Info("database ready", map[string]interface{}{"driver": cfg.Database.Driver, "schema_version": version})

	m := metrics.New()

	var repo storage.Repository = storage.NewSQLStore(database, cfg.Database.Driver)

	rdb, err := db.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		repo = storage.NewCachedRepository(repo, rdb, time.Duration(cfg.Redis.TTL)*time.Second, log, m)
		log.Info("scenario cache enabled", map[string]interface{}{"address": cfg.Redis.Address})
	}

	if cfg.IsDev() && cfg.App.SeedDemo {
		stats, err := seed.Run(ctx, repo)
		if err != nil {
			return fmt.Errorf("seed demo scenarios: %w", err)
		}
		log.Info("demo scenarios seeded", map[string]interface{}{"inserts": stats.Inserts, "skipped": stats.Skipped})
	}

	renderer, err := report.NewRenderer(cfg.Report.Locale)
	if err != nil {
		return err
	}

	transport, err := newMailer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("configure mail transport: %w", err)
	}
	log.Info("mail transport selected", map[string]interface{}{"transport": cfg.MailTransport()})

	dispatcher := mailer.NewDispatcher(transport, time.Duration(cfg.Mail.Timeout)*time.Millisecond, log, m)

	srv := &server{
		repo:       repo,
		renderer:   renderer,
		dispatcher: dispatcher,
		log:        log,
		metrics:    m,
		mailFrom:   cfg.Mail.From,
		publicURL:  cfg.App.PublicURL,
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("listening", map[string]interface{}{"addr": httpServer.Addr, "environment": cfg.App.Environment})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case sig := <-quit:
		log.Info("shutdown signal received", map[string]interface{}{"signal": sig.String()})
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Millisecond)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown failed", nil)
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.WithError(err).Warn("in-flight report mails abandoned", nil)
	}

	log.Info("server stopped", nil)
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newMailer(ctx context.Context, cfg *config.Config) (mailer.Mailer, error) {
	switch cfg.MailTransport() {
	case config.MailSMTP:
		return mailer.NewSMTPMailer(cfg.Mail.SMTP), nil
	case config.MailSES:
		return mailer.NewSESMailer(ctx, cfg.Mail.SES.Region)
	default:
		return mailer.Noop{}, nil
	}
}
