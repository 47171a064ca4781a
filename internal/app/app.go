package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"tutor_backend/internal/config"
	"tutor_backend/internal/controller"
	"tutor_backend/internal/repository"
	"tutor_backend/internal/service"
	"tutor_backend/internal/tutor"
	"tutor_backend/pkg/configwatcher"
	"tutor_backend/pkg/database"
	"tutor_backend/pkg/logger"
	"tutor_backend/pkg/monitoring"
	"tutor_backend/pkg/security"
	"tutor_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracerProvider  *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)

	// background 中间件后台任务的生命周期，Close 时取消
	background context.Context
	stop       context.CancelFunc
}

// dependencies 外部依赖，测试时可替换为内存实现
type dependencies struct {
	db           *gorm.DB
	redis        *redis.Client
	sessions     repository.SessionRepository
	interactions service.InteractionStore
	client       tutor.Client
}

type services struct {
	tutor  *service.TutorService
	client *service.ReloadableClient
}

type controllers struct {
	tutor  *controller.TutorController
	health *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initServices(deps *dependencies, cfg *config.Config) *services {
	client := service.NewReloadableClient(service.NewTracedClient(deps.client, cfg.AI.Provider))
	return &services{
		tutor:  service.NewTutorService(deps.sessions, deps.interactions, client, cfg.Session),
		client: client,
	}
}

func (a *App) initControllers(s *services, deps *dependencies, cfg *config.Config) *controllers {
	components := map[string]controller.Pinger{
		"sessions": deps.sessions,
	}
	if deps.db != nil {
		db := deps.db
		components["database"] = controller.PingFunc(func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		})
	}

	return &controllers{
		tutor:  controller.NewTutorController(s.tutor, cfg),
		health: controller.NewHealthController(components),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if cfg.RateLimit.MaxRequests > 0 && window > 0 {
		router.Use(security.RateLimiter(a.background, cfg.RateLimit.MaxRequests, window))
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// reloadAIClient 配置文件变更后替换外部辅导 API 客户端
func (a *App) reloadAIClient(newCfg *config.Config) {
	client, err := service.NewTutorClient(newCfg.AI)
	if err != nil {
		logger.Log.Error("Failed to rebuild tutoring client", zap.Error(err))
		return
	}
	a.services.client.Swap(service.NewTracedClient(client, newCfg.AI.Provider))
	logger.Log.Info("Tutoring client reloaded",
		zap.String("provider", newCfg.AI.Provider),
		zap.String("model", newCfg.AI.Model))
}

func newApp(cfg *config.Config, deps *dependencies) *App {
	app := &App{
		Config: cfg,
		DB:     deps.db,
		Redis:  deps.redis,
	}
	app.background, app.stop = context.WithCancel(context.Background())

	app.services = app.initServices(deps, cfg)
	controllers := app.initControllers(app.services, deps, cfg)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	app.RegisterConfigCallback(app.reloadAIClient)
	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully", zap.String("mode", cfg.Server.Mode))

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	deps := &dependencies{
		db:           db,
		interactions: repository.NewInteractionRepository(db),
	}

	switch cfg.Session.Store {
	case config.SessionStoreRedis:
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		}
		deps.redis = rdb
		deps.sessions = repository.NewRedisSessionRepository(rdb, cfg.Session.TTL, cfg.Session.LockTimeout)
	default:
		deps.sessions = repository.NewMemorySessionRepository(cfg.Session.TTL)
	}

	client, err := service.NewTutorClient(cfg.AI)
	if err != nil {
		logger.Log.Fatal("Failed to initialize tutoring client", zap.Error(err))
	}
	deps.client = client
	logger.Log.Info("Tutoring client ready", zap.String("provider", cfg.AI.Provider))

	app := newApp(cfg, deps)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracerProvider = tp
	}

	return app
}

func (a *App) watchConfig(ctx context.Context) {
	if a.Config.ConfigPath == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(ctx, a.Config.ConfigPath, func(newCfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(newCfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

// Close 停止限流清理等后台任务，可重复调用
func (a *App) Close() {
	if a.stop != nil {
		a.stop()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	a.watchConfig(ctx)

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")
	stop()
	a.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	logger.Log.Info("Server exiting")
}
