package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/antonlindstrom/pgstore"
	"github.com/nikhilsahni7/StandupX/auth"
	"github.com/nikhilsahni7/StandupX/config"
	"github.com/nikhilsahni7/StandupX/db"
	"github.com/nikhilsahni7/StandupX/handlers"
	"github.com/nikhilsahni7/StandupX/logger"
	"github.com/nikhilsahni7/StandupX/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zlog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	if err := run(cfg, zlog); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zlog *zap.Logger) error {
	zlog.Info("starting", zap.Stringer("config", cfg))

	gdb, err := db.Open(cfg.DB, zlog)
	if err != nil {
		return err
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	sessionStore, err := pgstore.NewPGStoreFromPool(sqlDB, []byte(cfg.Session.Key))
	if err != nil {
		return err
	}
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.Secure = cfg.IsProduction()
	sessionStore.Options.SameSite = http.SameSiteLaxMode
	quit, done := sessionStore.Cleanup(time.Hour)
	defer sessionStore.StopCleanup(quit, done)

	deps := handlers.Deps{
		Store:          db.NewStore(gdb),
		Sessions:       auth.NewSessions(sessionStore),
		OAuth:          cfg.GoogleOAuth(),
		Logger:         zlog,
		BcryptCost:     cfg.Session.BcryptCost,
		WebhookTimeout: cfg.Webhook.Timeout,
	}
	if cfg.Limiter.Enabled {
		deps.SubmitRate = rate.Limit(cfg.Limiter.RPS)
		deps.SubmitBurst = cfg.Limiter.Burst
	}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return err
		}
		deps.Redis = rdb
		deps.Drafts = response.NewRedisDraftStore(rdb, cfg.Redis.DraftTTL)
		zlog.Info("drafts enabled", zap.String("redis", cfg.Redis.Addr))
	}

	srv := handlers.New(deps)
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           c.Handler(srv.Routes()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info("server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		zlog.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		return err
	}
	srv.Wait()
	return nil
}
