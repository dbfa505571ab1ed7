package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"eyecare_backend/internal/config"
	"eyecare_backend/internal/controller"
	"eyecare_backend/internal/repository"
	"eyecare_backend/internal/service"
	"eyecare_backend/internal/util"
	"eyecare_backend/pkg/configwatcher"
	"eyecare_backend/pkg/database"
	"eyecare_backend/pkg/logger"
	"eyecare_backend/pkg/monitoring"
	"eyecare_backend/pkg/security"
	"eyecare_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigDir is where configs/config.yaml is loaded and watched from.
const ConfigDir = "configs"

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	rateLimiter     *security.RateLimiter
	sessionStore    repository.VisionSessionStore
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)

	ctx    context.Context
	cancel context.CancelFunc
}

type repositories struct {
	user        *repository.UserRepository
	achievement *repository.AchievementRepository
	checkin     *repository.CheckinRepository
	testResult  *repository.TestResultRepository
	reminder    *repository.ReminderRepository
	tip         *repository.TipRepository
	plate       *repository.PlateRepository
}

type services struct {
	auth        *service.AuthService
	user        *service.UserService
	storage     *service.StorageService
	achievement *service.AchievementService
	checkin     *service.CheckinService
	visionTest  *service.VisionTestService
	reminder    *service.ReminderService
	tip         *service.TipService
	assistant   *service.AssistantService
	assistantWS *service.AssistantHub
	plate       *service.PlateService
}

type controllers struct {
	auth        *controller.AuthController
	user        *controller.UserController
	achievement *controller.AchievementController
	checkin     *controller.CheckinController
	visionTest  *controller.VisionTestController
	reminder    *controller.ReminderController
	tip         *controller.TipController
	assistant   *controller.AssistantController
	plate       *controller.PlateController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) reloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("Configuration reloaded")
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		achievement: repository.NewAchievementRepository(db),
		checkin:     repository.NewCheckinRepository(db),
		testResult:  repository.NewTestResultRepository(db),
		reminder:    repository.NewReminderRepository(db),
		tip:         repository.NewTipRepository(db),
		plate:       repository.NewPlateRepository(db),
	}
}

// initSessionStore keeps live vision-test sessions in redis when it is
// configured and in process memory otherwise.
func (a *App) initSessionStore(cfg *config.Config, rdb *redis.Client) repository.VisionSessionStore {
	ttl := cfg.VisionTest.SessionTTL()
	if rdb != nil {
		return repository.NewRedisVisionSessionStore(rdb, ttl)
	}
	logger.Log.Warn("Redis disabled, vision test sessions are kept in memory")
	return repository.NewMemoryVisionSessionStore(ttl)
}

func (a *App) initServices(repos *repositories, cfg *config.Config) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.user = service.NewUserService(repos.user)
	s.achievement = service.NewAchievementService(repos.achievement, repos.user)
	s.checkin = service.NewCheckinService(repos.checkin, s.achievement)
	s.visionTest = service.NewVisionTestService(a.sessionStore, repos.testResult, s.achievement, &cfg.VisionTest)
	s.reminder = service.NewReminderService(repos.reminder)
	s.tip = service.NewTipService(repos.tip)
	s.plate = service.NewPlateService(repos.plate, s.storage)

	var client service.ChatClient
	if cfg.AI.BaseURL != "" {
		client = service.NewAIService(cfg.AI)
	}
	s.assistant = service.NewAssistantService(client, cfg.AI.Enabled, service.DefaultResilienceConfig())
	s.assistantWS = service.NewAssistantHub(s.assistant, cfg.CORS.AllowedOrigins)
	a.RegisterConfigCallback(func(c *config.Config) {
		s.assistant.SetEnabled(c.AI.Enabled)
	})

	return s
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth, s.checkin),
		user:        controller.NewUserController(s.user),
		achievement: controller.NewAchievementController(s.achievement),
		checkin:     controller.NewCheckinController(s.checkin),
		visionTest:  controller.NewVisionTestController(s.visionTest),
		reminder:    controller.NewReminderController(s.reminder),
		tip:         controller.NewTipController(s.tip),
		assistant:   controller.NewAssistantController(s.assistant, s.assistantWS),
		plate:       controller.NewPlateController(s.plate),
		health:      controller.NewHealthController(a.DB, a.Redis),
	}
}

func rateWindow(cfg config.RateLimitConfig) time.Duration {
	if cfg.WindowMinutes <= 0 {
		return time.Minute
	}
	return time.Duration(cfg.WindowMinutes) * time.Minute
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	a.rateLimiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, rateWindow(cfg.RateLimit))
	router.Use(a.rateLimiter.Middleware())
	a.RegisterConfigCallback(func(c *config.Config) {
		a.rateLimiter.SetLimit(c.RateLimit.MaxRequests, rateWindow(c.RateLimit))
	})

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// every runs fn on each tick until the app context ends.
func (a *App) every(interval time.Duration, fn func(now time.Time)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case now := <-ticker.C:
				fn(now)
			}
		}
	}()
}

func (a *App) startBackgroundTasks(s *services) {
	cfg := a.Config

	if cfg.Reminder.Enabled {
		interval := time.Duration(cfg.Reminder.IntervalSeconds) * time.Second
		if interval <= 0 {
			interval = time.Minute
		}
		a.every(interval, func(now time.Time) {
			if _, err := s.reminder.FireDue(now); err != nil {
				logger.Log.Error("fire due reminders", zap.Error(err))
			}
		})
	}

	if mem, ok := a.sessionStore.(*repository.MemoryVisionSessionStore); ok {
		a.every(time.Minute, func(time.Time) {
			if n := mem.Sweep(); n > 0 {
				logger.Log.Debug("expired vision test sessions removed", zap.Int("count", n))
			}
		})
	}

	go a.rateLimiter.Run(a.ctx.Done())

	go func() {
		path := filepath.Join(ConfigDir, "config.yaml")
		if err := configwatcher.WatchConfig(a.ctx, path, a.reloadConfig); err != nil {
			logger.Log.Error("config watcher stopped", zap.Error(err))
		}
	}()
}

// New assembles the app around an open database. rdb may be nil.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		ctx:    ctx,
		cancel: cancel,
	}

	monitoring.Init()

	app.sessionStore = app.initSessionStore(cfg, rdb)
	repos := app.initRepositories(db)
	app.services = app.initServices(repos, cfg)
	controllers := app.initControllers(app.services)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// NewApp connects to the database and redis and builds the app. With
// cfg.MigrateOnly it returns after migrating, leaving Router nil.
func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != "release"
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err = database.InitRedis(ctx, &cfg.Redis)
		cancel()
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.startBackgroundTasks(app.services)
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close drops assistant sockets and releases the tracer, redis and database connections.
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil && a.services.assistantWS != nil {
		a.services.assistantWS.Close()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
