package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gymbook/config"
	"gymbook/cron"
	"gymbook/database"
	schedulerRepo "gymbook/database/repository/scheduler"
	"gymbook/handlers"
	"gymbook/middleware"
	"gymbook/routes"
	"gymbook/services/booking"
	"gymbook/services/notification"
	"gymbook/services/sessions"
	"gymbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func openStore(logger *zap.Logger) (schedulerRepo.SchedulerRepository, func()) {
	switch config.AppConfig.StoreDriver {
	case "bolt":
		db, err := database.OpenBolt(config.AppConfig.BoltPath)
		if err != nil {
			logger.Fatal("main: failed to open bolt store", zap.Error(err))
		}
		repo, err := schedulerRepo.NewBoltSchedulerRepo(db)
		if err != nil {
			logger.Fatal("main: failed to prepare bolt store", zap.Error(err))
		}
		logger.Info("using embedded store", zap.String("path", config.AppConfig.BoltPath))
		return repo, func() { _ = db.Close() }
	default:
		database.InitDB()
		repo := schedulerRepo.NewMongoSchedulerRepo(database.MongoClient, config.AppConfig.DatabaseName)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := repo.EnsureIndexes(ctx); err != nil {
			logger.Fatal("main: failed to ensure indexes", zap.Error(err))
		}
		return repo, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = database.CloseDB(ctx)
		}
	}
}

func newDispatcher(logger *zap.Logger) notification.Dispatcher {
	credentials := config.AppConfig.FirebaseCredentialsFile
	if credentials == "" {
		logger.Warn("FIREBASE_CREDENTIALS_FILE not set, notifications are logged only")
		return notification.NewLogDispatcher(logger)
	}
	client, err := utils.FirebaseInit(context.Background(), credentials)
	if err != nil {
		logger.Fatal("main: failed to initialize firebase", zap.Error(err))
	}
	d, err := notification.NewFCMDispatcher(client, logger)
	if err != nil {
		logger.Fatal("main: failed to build FCM dispatcher", zap.Error(err))
	}
	return d
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer func() { _ = logger.Sync() }()

	config.WatchConfig(func(c config.Config) {
		utils.SetLogLevel(c.LogLevel)
	})

	if config.IsProduction() && utils.UsingDevSecret() {
		logger.Fatal("main: JWT_SECRET must be set in production")
	}

	loc := config.Location()
	repo, closeStore := openStore(logger)
	defer closeStore()

	// Calendar cache and task queue share the redis server on separate DBs.
	cacheClient := utils.GetCacheClient()
	calendarCache := utils.NewRedisCalendarCache(cacheClient, config.AppConfig.CalendarCacheTTL)

	queueOpts := utils.QueueRedisOpt()
	queue := asynq.NewClient(queueOpts)
	defer queue.Close()

	notifier, err := notification.NewTaskNotifier(queue, time.Duration(config.AppConfig.ReminderLeadMinutes)*time.Minute, logger)
	if err != nil {
		logger.Fatal("main: failed to build notifier", zap.Error(err))
	}

	worker := cron.NewWorker(queueOpts, config.AppConfig.WorkerConcurrency, repo, queue, newDispatcher(logger), logger)
	worker.Start()
	defer worker.Shutdown()

	healthCtx, stopHealth := context.WithCancel(context.Background())
	defer stopHealth()
	utils.StartHealthMonitor(healthCtx, repo, []*redis.Client{cacheClient})

	// services.
	sessionService, err := sessions.NewDefaultSessionService(
		repo, calendarCache, notifier, logger, loc, config.AppConfig.MaxRecurringInstances)
	if err != nil {
		logger.Fatal("main: failed to build session service", zap.Error(err))
	}
	reservationService, err := booking.NewDefaultReservationService(repo, notifier, calendarCache, logger)
	if err != nil {
		logger.Fatal("main: failed to build reservation service", zap.Error(err))
	}

	handlerBundle := handlers.NewHandlerBundle(
		handlers.NewSessionHandler(sessionService, loc),
		handlers.NewBookingHandler(reservationService),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerMin))

	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:              "0.0.0.0:" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
