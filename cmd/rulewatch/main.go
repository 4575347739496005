package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mwhitfield/rulewatch/internal/cache"
	"github.com/mwhitfield/rulewatch/internal/config"
	"github.com/mwhitfield/rulewatch/internal/fedreg"
	"github.com/mwhitfield/rulewatch/internal/logging"
	"github.com/mwhitfield/rulewatch/internal/papers"
	"github.com/mwhitfield/rulewatch/internal/server"
	"github.com/mwhitfield/rulewatch/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "rulewatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	st, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("state store ready", zap.String("backend", st.BackendType()))

	timeout, err := cfg.GetDuration("fedreg.timeout")
	if err != nil {
		timeout = fedreg.DefaultTimeout
	}
	client := fedreg.NewClient(logger,
		fedreg.WithBaseURL(cfg.GetString("fedreg.base_url")),
		fedreg.WithTimeout(timeout),
		fedreg.WithAgencyID(cfg.GetInt("fedreg.agency_id")),
	)

	ttl, err := cfg.GetDuration("cache.ttl")
	if err != nil {
		ttl = time.Hour
	}

	paperFetcher := papers.NewFetcher(logger,
		cfg.GetString("arxiv.endpoint"),
		cfg.GetStringSlice("arxiv.search_queries"),
		cfg.GetStringSlice("arxiv.keywords"),
		cfg.GetInt("arxiv.max_results"),
	)

	srv, err := server.New(server.Options{
		Store:        st,
		Source:       client,
		Papers:       paperFetcher,
		Cache:        cache.New(ttl),
		Logger:       logger,
		DefaultQuery: cfg.GetString("server.default_query"),
		PerPage:      cfg.GetInt("server.per_page"),
	})
	if err != nil {
		return fmt.Errorf("build server: %w", err)
	}

	// Shut down cleanly on SIGINT/SIGTERM so the store gets closed.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.Start(ctx, cfg.GetString("server.listen_address"))
}

func openStore(cfg *config.Config) (store.Store, error) {
	switch backend := cfg.GetString("store.backend"); backend {
	case "memory":
		return store.NewMemory(), nil
	case "sqlite":
		path := cfg.GetString("store.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(cfg.GetString("store.postgres_dsn"))
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
