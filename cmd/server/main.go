package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskdeck/backend/api/handler"
	"github.com/taskdeck/backend/internal/config"
	"github.com/taskdeck/backend/internal/infrastructure/audit"
	"github.com/taskdeck/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskdeck/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskdeck/backend/internal/infrastructure/redis"
	"github.com/taskdeck/backend/internal/middleware"
	"github.com/taskdeck/backend/internal/router"
	"github.com/taskdeck/backend/internal/services"
	"github.com/taskdeck/backend/internal/services/lifecycle"
	"github.com/taskdeck/backend/pkg/httpcontext"
	"github.com/taskdeck/backend/pkg/logger"
	"github.com/taskdeck/backend/repository"
	"github.com/taskdeck/backend/repository/postgres"
	redisRepo "github.com/taskdeck/backend/repository/redis"
	authUC "github.com/taskdeck/backend/usecase/auth"
	taskUC "github.com/taskdeck/backend/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	if err := pgInfra.RunMigrations(cfg, zapLogger); err != nil {
		zapLogger.Fatal("migrations failed", zap.Error(err))
	}

	pool, err := pgInfra.NewPool(appCtx, cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("postgres connection failed", zap.Error(err))
	}
	manager.Register("postgres", func(ctx context.Context) error {
		pool.Close()
		return nil
	})

	// The cache is optional: without redis every list goes to Postgres.
	var taskCache repository.TaskListCache
	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Warn("redis unavailable, task list cache disabled", zap.Error(err))
	} else {
		taskCache = redisRepo.NewTaskListCache(redisClient, cfg.Redis.CacheTTL)
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	auditStore, err := audit.Open(cfg.Audit.Path, "activity")
	if err != nil {
		zapLogger.Fatal("failed to open audit store", zap.Error(err))
	}
	manager.Register("audit", func(ctx context.Context) error {
		return auditStore.Close()
	})

	mon := monitor.New(pool, redisClient, auditStore, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	recorder := services.NewActivityRecorder(auditStore, zapLogger, services.RecorderConfig{
		Retention: cfg.Audit.Retention,
		SweepSpec: cfg.Audit.SweepSpec,
	})
	recorder.Start()
	manager.Register("activity_recorder", func(ctx context.Context) error {
		recorder.Stop(ctx)
		return nil
	})

	userRepo := postgres.NewUserRepository(pool)
	taskRepo := postgres.NewTaskRepository(pool)

	authUseCase := authUC.New(userRepo, authUC.Config{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		TTL:    cfg.JWT.TTL,
	}, zapLogger)
	taskUseCase := taskUC.New(taskRepo, taskCache, recorder, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:   apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Task:   apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger, cfg.Audit.Limit),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.BearerAuth(authUseCase.Verify, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler:      r.Handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started", zap.String("address", cfg.Address()))
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.Shutdown()
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
