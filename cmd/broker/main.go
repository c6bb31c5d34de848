package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wpmcp/tokenbroker/migrate"
	"github.com/wpmcp/tokenbroker/server"
	"github.com/wpmcp/tokenbroker/store"
	"github.com/wpmcp/tokenbroker/wordpress"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := server.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	sessions, err := store.NewSessionTokenStore(filepath.Join(cfg.DataDir, "tokens.json"), logger)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	codes, err := store.NewAuthorizationCodeStore(filepath.Join(cfg.DataDir, "codes.json"), logger)
	if err != nil {
		return fmt.Errorf("open code store: %w", err)
	}

	var pending store.PendingAuthorizationStore
	switch cfg.Pending.Backend {
	case "valkey":
		vk, err := store.NewValkeyPendingStore(cfg.Pending.ValkeyAddr, cfg.Pending.ValkeyPrefix)
		if err != nil {
			return fmt.Errorf("connect valkey: %w", err)
		}
		defer vk.Close()
		pending = vk
		logger.Info("using valkey pending store", "addr", cfg.Pending.ValkeyAddr)
	default:
		mem := store.NewMemoryPendingStore()
		defer mem.Close()
		pending = mem
	}

	var events *store.AuthEventStore
	if cfg.Events.DBPath != "" {
		if cfg.Events.MigrateOnStart {
			if err := migrate.Run(migrate.Options{
				DSN:    cfg.Events.DBPath,
				Logger: log.New(os.Stdout, "migrate: ", log.LstdFlags),
			}); err != nil {
				return fmt.Errorf("migrate events db: %w", err)
			}
		}
		events, err = store.OpenAuthEventStore(cfg.Events.DBPath)
		if err != nil {
			return fmt.Errorf("open events db: %w", err)
		}
		logger.Info("auth event history enabled", "path", cfg.Events.DBPath)
	}

	wp := wordpress.New(wordpress.Config{
		ClientID:     cfg.WordPress.ClientID,
		ClientSecret: cfg.WordPress.ClientSecret,
		RedirectURI:  cfg.WordPress.RedirectURI,
		Scope:        cfg.WordPress.Scope,
		AuthURL:      cfg.WordPress.AuthorizeURL,
		TokenURL:     cfg.WordPress.TokenURL,
	})

	s, err := server.NewServer(cfg, logger, sessions, codes, pending, events, wp)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.NewGinEngine(s),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		logger.Info("token broker listening", "addr", cfg.ListenAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("shutdown complete")
	}
	return nil
}
