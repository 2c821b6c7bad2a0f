package http

import (
	"context"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"userhub/internal/cache"
	"userhub/internal/config"
	"userhub/internal/database"
	"userhub/internal/handler"
	"userhub/internal/password"
	"userhub/internal/queue"
	redisclient "userhub/internal/redis"
	"userhub/internal/repository"
	"userhub/internal/service"
	"userhub/internal/worker"
)

// Run wires every dependency, starts the audit worker pool and serves
// HTTP until SIGINT/SIGTERM.
func Run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	rdb, err := redisclient.NewClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rdb.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := rdb.Ping(pingCtx); err != nil {
		// Cache and event stream degrade gracefully; the service
		// stays correct without them, just slower and unaudited.
		log.Printf("Redis unreachable, running degraded: %v", err)
	}
	cancel()

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	hasher := password.NewHasher(cfg.BcryptCost)
	userCache := cache.NewUserCache(rdb.Client, cfg.UserCacheTTL)
	publisher := queue.NewPublisher(rdb.Client)

	userService := service.NewUserService(userRepo, userCache, hasher, publisher, service.UserServiceConfig{
		StoreTimeout: cfg.StoreTimeout,
		CacheTimeout: cfg.CacheTimeout,
	})
	authService := service.NewAuthService(refreshTokenRepo, cfg)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go sweepExpiredTokens(sweepCtx, authService)

	mediaService, err := service.NewMediaService(context.Background(), cfg)
	if err != nil {
		log.Printf("Avatar uploads disabled: %v", err)
		mediaService = nil
	}

	consumer := queue.NewConsumer(rdb.Client)
	auditWorkers := worker.NewManager(consumer, worker.NewHandler(auditRepo), worker.DefaultManagerConfig())
	if err := auditWorkers.Start(context.Background()); err != nil {
		log.Printf("Audit workers not started: %v", err)
	} else {
		defer auditWorkers.Stop()
	}

	router := NewRouter(RouterConfig{
		AuthHandler: handler.NewAuthHandler(userService, authService, mediaService, cfg),
		UserHandler: handler.NewUserHandler(userService),
		JWTSecret:   cfg.JWTSecret,
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on :%s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Printf("Received %v, shutting down", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

// sweepExpiredTokens periodically removes refresh tokens whose expiry
// has long passed. Runs once at startup, then hourly.
func sweepExpiredTokens(ctx context.Context, authService *service.AuthService) {
	const retainExpired = 24 * time.Hour

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if _, err := authService.PurgeExpiredTokens(ctx, retainExpired); err != nil {
			log.Printf("Refresh token sweep failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
