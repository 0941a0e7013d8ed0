package main

import (
	"context"
	"log"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/taskify/backend/api/handler"
	"github.com/taskify/backend/collection"
	gwPostgres "github.com/taskify/backend/gateway/postgres"
	gwRedis "github.com/taskify/backend/gateway/redis"
	"github.com/taskify/backend/internal/config"
	"github.com/taskify/backend/internal/infrastructure/cache"
	"github.com/taskify/backend/internal/infrastructure/monitor"
	pgInfra "github.com/taskify/backend/internal/infrastructure/postgres"
	redisInfra "github.com/taskify/backend/internal/infrastructure/redis"
	"github.com/taskify/backend/internal/router"
	"github.com/taskify/backend/internal/services"
	"github.com/taskify/backend/internal/services/lifecycle"
	"github.com/taskify/backend/parser/openai"
	"github.com/taskify/backend/pkg/httpcontext"
	"github.com/taskify/backend/pkg/logger"
	noteUC "github.com/taskify/backend/usecase/notes"
	taskUC "github.com/taskify/backend/usecase/tasks"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		AppName:  cfg.AppName,
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

	redisClient, err := redisInfra.NewClient(cfg.Redis)
	if err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	manager.Register("redis", func(ctx context.Context) error {
		return redisClient.Close()
	})

	snapshotCache, err := cache.Open(cfg.Cache.Path)
	if err != nil {
		zapLogger.Fatal("failed to open snapshot cache", zap.Error(err))
	}
	manager.Register("snapshot_cache", func(ctx context.Context) error {
		return snapshotCache.Close()
	})

	mon := monitor.New(pool, redisClient, snapshotCache, 10*time.Second, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	taskGateway := gwPostgres.NewTaskGateway(pool)
	noteGateway := gwPostgres.NewNoteGateway(pool)
	notifier := gwRedis.NewNotifier(redisClient, zapLogger)
	manager.Register("notifier", func(ctx context.Context) error {
		return notifier.Close()
	})

	taskParser := openai.New(openai.Config{
		APIKey:  cfg.Parser.APIKey,
		Model:   cfg.Parser.Model,
		Timeout: cfg.Parser.Timeout,
	}, zapLogger)

	store := collection.NewStore(zapLogger)
	taskService := taskUC.New(store, taskGateway, zapLogger, taskUC.Options{
		Notifier: notifier,
		Parser:   taskParser,
		Cache:    snapshotCache,
		Timeout:  cfg.Context.PersistTimeout,
		Notify: func(message string, err error) {
			zapLogger.Warn(message, zap.Error(err))
		},
	})
	manager.Register("task_service", func(ctx context.Context) error {
		taskService.Wait()
		return nil
	})

	noteService := noteUC.New(noteGateway, zapLogger)
	manager.Register("note_service", func(ctx context.Context) error {
		noteService.Wait()
		return nil
	})

	loadCtx, loadCancel := context.WithTimeout(appCtx, cfg.Context.RequestTimeout)
	if err := taskService.Load(loadCtx); err != nil {
		zapLogger.Warn("initial task load failed", zap.Error(err))
	}
	if err := noteService.Load(loadCtx); err != nil {
		zapLogger.Warn("initial note load failed", zap.Error(err))
	}
	loadCancel()

	unsubscribe, err := taskService.StartRealtime()
	if err != nil {
		zapLogger.Warn("realtime subscription failed", zap.Error(err))
	} else {
		manager.Register("realtime", func(ctx context.Context) error {
			unsubscribe()
			return nil
		})
	}

	refresher := services.NewRefresher(taskService, mon, zapLogger, services.RefresherConfig{
		Interval: cfg.Refresh.Interval,
	})
	refresher.Start()
	manager.Register("refresher", func(ctx context.Context) error {
		refresher.Stop(ctx)
		return nil
	})

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Task:   apiHandler.NewTaskHandler(taskService, ctxAdapter, zapLogger),
		Note:   apiHandler.NewNoteHandler(noteService, ctxAdapter, zapLogger),
		Health: apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
	}

	r := router.New(handlers)

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
