package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pythonchick_backend/internal/config"
	"pythonchick_backend/internal/controller"
	"pythonchick_backend/internal/repository"
	"pythonchick_backend/internal/sandbox"
	"pythonchick_backend/internal/seed"
	"pythonchick_backend/internal/service"
	"pythonchick_backend/pkg/configwatcher"
	"pythonchick_backend/pkg/database"
	"pythonchick_backend/pkg/logger"
	"pythonchick_backend/pkg/monitoring"
	"pythonchick_backend/pkg/security"
	"pythonchick_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	Runner          *sandbox.Runner
	tracer          *sdktrace.TracerProvider
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user      *repository.UserRepository
	content   *repository.ContentRepository
	progress  *repository.ProgressRepository
	challenge *repository.ChallengeRepository
	activity  *repository.ActivityRepository
	game      *repository.GameRepository
}

type services struct {
	auth          *service.AuthService
	passwordReset *service.PasswordResetService
	storage       *service.StorageService
	content       *service.ContentService
	progression   *service.ProgressionService
	execution     *service.ExecutionService
	challenge     *service.ChallengeService
	game          *service.GameService
	user          *service.UserService
}

type controllers struct {
	auth      *controller.AuthController
	content   *controller.ContentController
	progress  *controller.ProgressController
	code      *controller.CodeController
	challenge *controller.ChallengeController
	game      *controller.GameController
	user      *controller.UserController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) applyConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:      repository.NewUserRepository(db),
		content:   repository.NewContentRepository(db),
		progress:  repository.NewProgressRepository(db),
		challenge: repository.NewChallengeRepository(db),
		activity:  repository.NewActivityRepository(db),
		game:      repository.NewGameRepository(db),
	}
}

func newRunner(cfg *config.SandboxConfig) *sandbox.Runner {
	return sandbox.NewRunner(sandbox.Options{
		Interpreter:    cfg.Interpreter,
		DefaultTimeout: cfg.Timeout(),
		MaxOutputBytes: cfg.MaxOutputBytes,
		MaxConcurrent:  cfg.MaxConcurrent,
		WorkDir:        cfg.WorkDir,
	})
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.user, cfg)
	s.passwordReset = service.NewPasswordResetService(
		repos.user,
		service.NewRedisTokenStore(rdb),
		service.NewMailer(cfg.Mail),
		cfg.PasswordReset.TTL(),
	)
	s.content = service.NewContentService(repos.content, repos.progress)
	s.progression = service.NewProgressionService(db, repos.user, repos.content, repos.progress, repos.activity)
	s.execution = service.NewExecutionService(a.Runner)
	s.challenge = service.NewChallengeService(db, repos.challenge, s.execution, s.progression)
	s.game = service.NewGameService(db, repos.game, s.progression)
	s.user = service.NewUserService(repos.user, repos.activity, s.storage)

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.passwordReset),
		content:   controller.NewContentController(s.content),
		progress:  controller.NewProgressController(s.progression),
		code:      controller.NewCodeController(s.execution),
		challenge: controller.NewChallengeController(s.challenge),
		game:      controller.NewGameController(s.game),
		user:      controller.NewUserController(s.user),
		health:    controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// seedIfNeeded -seed 时总是执行；否则仅在课程表为空时执行
func (a *App) seedIfNeeded(repos *repositories) {
	if !a.Config.Seed {
		n, err := repos.content.CountCourses()
		if err != nil {
			logger.Log.Error("Failed to count courses", zap.Error(err))
			return
		}
		if n > 0 {
			return
		}
	}
	if _, err := seed.Run(a.DB); err != nil {
		logger.Log.Error("Failed to seed catalogue", zap.Error(err))
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	app.Runner = newRunner(&cfg.Sandbox)
	app.RegisterConfigCallback(func(c *config.Config) {
		app.Runner.SetDefaultTimeout(c.Sandbox.Timeout())
		logger.Log.Info("Sandbox timeout updated", zap.Duration("timeout", c.Sandbox.Timeout()))
	})

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, db, rdb)
	controllers := app.initControllers(services, db, rdb)

	app.seedIfNeeded(repos)

	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("pythonchick-backend", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

// WatchConfig 配置文件变更时依次执行已注册的回调
func (a *App) WatchConfig(ctx context.Context, configDir string) {
	if err := configwatcher.Watch(ctx, configDir, a.applyConfig); err != nil {
		logger.Log.Warn("Config hot reload disabled", zap.Error(err))
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（5 秒超时）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	log.Println("Server exiting")
}
