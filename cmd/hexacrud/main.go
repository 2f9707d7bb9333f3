package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditApp "github.com/davicafu/hexacrud/internal/audit/application"
	auditHttp "github.com/davicafu/hexacrud/internal/audit/infra/inbound/http"
	auditRepo "github.com/davicafu/hexacrud/internal/audit/infra/outbound/clickhouse"
	config "github.com/davicafu/hexacrud/internal/config"
	infraCache "github.com/davicafu/hexacrud/internal/infra/cache"
	infraEvents "github.com/davicafu/hexacrud/internal/infra/events"
	sharedApp "github.com/davicafu/hexacrud/internal/shared/application"
	sharedEvents "github.com/davicafu/hexacrud/internal/shared/domain/events"
	sharedBus "github.com/davicafu/hexacrud/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/hexacrud/internal/shared/infra/platform/cache"
	"github.com/davicafu/hexacrud/internal/shared/infra/relayer"
	taskApp "github.com/davicafu/hexacrud/internal/task/application"
	taskDomain "github.com/davicafu/hexacrud/internal/task/domain"
	taskHttp "github.com/davicafu/hexacrud/internal/task/infra/inbound/http"
	userApp "github.com/davicafu/hexacrud/internal/user/application"
	userDomain "github.com/davicafu/hexacrud/internal/user/domain"
	userHttp "github.com/davicafu/hexacrud/internal/user/infra/inbound/http"
	"github.com/davicafu/hexacrud/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	auditBatchSize     = 100
	auditFlushInterval = 2 * time.Second
	inMemoryBuffer     = 100
	shutdownTimeout    = 10 * time.Second
)

// ---------------- Main ----------------
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.LogLevel)
	log := logger.Logger()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------------- DB ----------------
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open storage", zap.String("storage", cfg.Storage), zap.Error(err))
	}
	defer store.close()

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb, err := infraCache.ConnectRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Warn("⚠️ Redis no disponible, cache en memoria", zap.Error(err))
		memCache := infraCache.NewInMemoryCache(cfg.CacheTTL, 3*cfg.CacheTTL)
		defer memCache.Stop()
		cacheInstance = memCache
	} else {
		defer rdb.Close()
		cacheInstance = infraCache.NewRedisCache(rdb, "hexacrud:", cfg.CacheTTL)
		log.Info("✅ Redis conectado, cache habilitado")
	}

	// --------------- Servicio --------------
	opts := sharedApp.Options{CacheTTL: cfg.CacheTTL, MaxPageSize: cfg.MaxPageSize}
	taskService := taskApp.NewTaskService(store.tasks, cacheInstance, log, opts)
	userService := userApp.NewUserService(store.users, cacheInstance, log, opts)

	// ---------------- Auditoría ----------------
	var eventLogger *auditApp.EventLogger
	auditDone := make(chan struct{})
	if cfg.ClickHouseAddr != "" {
		repo, err := auditRepo.NewEventLogRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Fatal("failed to connect ClickHouse", zap.Error(err))
		}
		defer repo.Close()
		if err := repo.InitSchema(ctx); err != nil {
			log.Fatal("failed to initialize ClickHouse", zap.Error(err))
		}
		eventLogger = auditApp.NewEventLogger(repo, log, auditBatchSize, auditFlushInterval)
		go func() {
			eventLogger.Run(ctx)
			close(auditDone)
		}()
		log.Info("📊 Auditoría en ClickHouse habilitada", zap.String("addr", cfg.ClickHouseAddr))
	} else {
		close(auditDone)
	}

	// ---------------- Events ---------------
	topics := []string{taskDomain.TaskTopic, userDomain.UserTopic}
	var publisher sharedBus.EventBus

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		// Writer sin topic: cada mensaje lleva el topic de su evento.
		writer := infraEvents.NewKafkaWriter(cfg.KafkaBrokers)
		kafkaPublisher := infraEvents.NewKafkaPublisher(writer, log)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher

		if eventLogger != nil {
			for _, topic := range topics {
				reader := infraEvents.NewKafkaReader(cfg.KafkaBrokers, topic, cfg.KafkaGroupID)
				infraEvents.NewConsumerAdapter(reader, eventLogger, log).Start(ctx)
			}
		}
	} else {
		log.Info("⚡️ Usando bus de eventos en memoria (canales de Go)")

		router := sharedBus.TopicRouter{}
		for _, topic := range topics {
			bus := infraEvents.NewInMemoryEventBus(topic)
			defer bus.Close()
			router[topic] = bus

			if eventLogger != nil {
				log.Info("🎧 Iniciando listener en memoria", zap.String("topic", topic))
				infraEvents.BackgroundConsumerChan(ctx, bus.Subscribe(inMemoryBuffer), eventLogger, log)
			}
		}
		publisher = router
	}

	// ------------ Outbox Worker ------------
	registry := sharedEvents.MergeRegistries(
		taskDomain.NewEventRegistry(),
		userDomain.NewEventRegistry(),
	)
	worker := relayer.NewOutboxWorker(store.outbox, publisher, registry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go worker.Start(ctx)

	// ---------------- HTTP ----------------
	router := gin.Default()
	taskHttp.RegisterTaskRoutes(router, taskHttp.NewTaskHandler(taskService, log))
	userHttp.RegisterUserRoutes(router, userHttp.NewUserHandler(userService, log))
	if eventLogger != nil {
		auditHttp.RegisterAuditRoutes(router, auditHttp.NewAuditHandler(eventLogger, log))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("🚀 Server running", zap.String("url", "http://localhost:"+cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("🛑 Apagando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	// El logger de auditoría escribe su último lote antes de cerrar ClickHouse.
	<-auditDone
}
