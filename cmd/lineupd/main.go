package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dreamplay/lineup/internal/cache"
	"github.com/dreamplay/lineup/internal/config"
	"github.com/dreamplay/lineup/internal/playlist"
	"github.com/dreamplay/lineup/internal/push"
	"github.com/dreamplay/lineup/internal/server"
	"github.com/dreamplay/lineup/internal/service"
	"github.com/dreamplay/lineup/internal/session"
	"github.com/dreamplay/lineup/internal/store"
	"github.com/dreamplay/lineup/internal/uploads"
)

func main() {
	configPath := flag.String("config", "", "Optional config file path (YAML); else use env DATABASE_URL")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFromFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Run migrations.
	absMigrations, err := filepath.Abs("migrations")
	if err != nil {
		absMigrations = "migrations"
	}
	if _, err := os.Stat(absMigrations); err != nil {
		if exe, e := os.Executable(); e == nil {
			absMigrations = filepath.Join(filepath.Dir(exe), "migrations")
		}
	}
	if err := store.RunMigrations(cfg.DatabaseURL, "file://"+absMigrations); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}

	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "db: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Connect to Redis if REDIS_URL is configured.
	var rds *cache.Redis
	var appStore store.Store = pg
	if cfg.RedisURL != "" {
		rds, err = cache.New(cfg.RedisURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "redis: %v\n", err)
			os.Exit(1)
		}
		defer rds.Close()

		if err := rds.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "redis ping: %v\n", err)
			os.Exit(1)
		}

		appStore = store.NewCachedStore(pg, rds)
		fmt.Fprintln(os.Stderr, "redis connected (caching and bind locking enabled)")
	} else {
		fmt.Fprintln(os.Stderr, "redis disabled (REDIS_URL not set)")
	}

	variant := playlist.VariantFull
	if cfg.LogoVariant == config.VariantStripped {
		variant = playlist.VariantStripped
	}
	policy := session.PolicyReject
	if cfg.DevicePolicy == config.PolicyEvictOldest {
		policy = session.PolicyEvictOldest
	}

	engine := session.NewEngine(appStore, policy)
	resolver := uploads.Resolver{Dir: cfg.UploadsDir}
	svc := service.New(appStore, engine, resolver, variant, cfg.FileBaseURL, rds)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the scrolling-message push scheduler.
	hub := push.NewHub()
	scheduler := push.NewScheduler(appStore, hub, cfg.PushInterval)
	go scheduler.Run(ctx)

	srv := server.New(svc, appStore, hub, cfg)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}
