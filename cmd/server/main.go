package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ignite/open-tracker/internal/config"
	"github.com/ignite/open-tracker/internal/pkg/logger"
	"github.com/ignite/open-tracker/internal/repository/memory"
	pgstore "github.com/ignite/open-tracker/internal/repository/postgres"
	redisstore "github.com/ignite/open-tracker/internal/repository/redis"
	"github.com/ignite/open-tracker/internal/tracking"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "error", err.Error())
		os.Exit(1)
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.Level))
	logger.SetRedactPII(cfg.Logging.ShouldRedactPII())

	store, cleanup, err := buildStore(cfg.Storage)
	if err != nil {
		logger.Error("init store", "type", cfg.Storage.Type, "error", err.Error())
		os.Exit(1)
	}
	defer cleanup()

	gen := tracking.NewGenerator()
	recorder := tracking.NewRecorder(store)
	injector := tracking.NewInjectorWithDefaults(cfg.Tracking.BaseURL, cfg.Tracking.PixelSize, cfg.Tracking.Position, gen)
	aggregator := tracking.NewAggregator(store)
	handler := tracking.NewHandler(recorder, injector, aggregator)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	go func() {
		logger.Info("open-tracker listening", "addr", srv.Addr, "store", cfg.Storage.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("listen", "error", err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down open-tracker")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(ctx)
}

func buildStore(cfg config.StorageConfig) (tracking.Store, func(), error) {
	switch cfg.Type {
	case "memory":
		return memory.New(), func() {}, nil

	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.RedisAddr, err)
		}
		return redisstore.New(client), func() { client.Close() }, nil

	case "postgres":
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		store := pgstore.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
