package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smsledger/internal/app"
	"smsledger/internal/auth"
	"smsledger/internal/config"
	"smsledger/internal/filestore"
	"smsledger/internal/handlers"
	"smsledger/internal/jobs"
	"smsledger/internal/logger"
	"smsledger/internal/version"
)

func main() {
	// Handle --version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println(version.Get())
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Default()

	if err := run(cfg); err != nil {
		log.Error("server_failed", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := logger.Default()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer a.Close()

	authn := auth.New(a.DB, cfg.Password, cfg.SessionTTL)
	if err := authn.CleanExpiredSessions(ctx); err != nil {
		log.Warn("session_cleanup_failed", "error", err.Error())
	}

	backups, err := filestore.New(cfg.BackupDir)
	if err != nil {
		return err
	}

	worker := jobs.NewWorker(a.DB, log)
	worker.Register(jobs.TypeImportMessages, jobs.ImportMessagesHandler(backups, a.Pipeline))
	worker.Register(jobs.TypeSweepDuplicates, jobs.SweepHandler(a.Matcher))
	worker.Start()
	defer worker.Stop()

	scheduler := jobs.NewScheduler(a.DB, cfg.SweepInterval, log)
	scheduler.Start()
	defer scheduler.Stop()

	h := handlers.New(handlers.Deps{
		DB:       a.DB,
		Auth:     authn,
		Backups:  backups,
		Pipeline: a.Pipeline,
		Enricher: a.Enricher,
		Learned:  a.Learned,
		Location: cfg.Location,
	})
	mux := http.NewServeMux()
	h.Register(mux)

	// Wrap with middleware: logging -> auth -> mux
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           logger.HTTPMiddleware(authn.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_starting", "port", cfg.Port, "address", "http://localhost:"+cfg.Port,
			"version", version.Version, "db_path", cfg.DBPath)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
