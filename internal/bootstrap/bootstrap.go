package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/moderator/internal/app/controllers"
	appMigrations "github.com/yigit/moderator/internal/app/migrations"
	appRepos "github.com/yigit/moderator/internal/app/repositories"
	memoryRepos "github.com/yigit/moderator/internal/app/repositories/memory"
	appRoutes "github.com/yigit/moderator/internal/app/routes"
	appServices "github.com/yigit/moderator/internal/app/services"
	"github.com/yigit/moderator/internal/config"
	"github.com/yigit/moderator/internal/db"
	appMiddleware "github.com/yigit/moderator/internal/middleware"
	pkgAuth "github.com/yigit/moderator/internal/pkg/auth"
	"github.com/yigit/moderator/internal/pkg/email"
	"github.com/yigit/moderator/internal/pkg/helpers"
	"github.com/yigit/moderator/internal/pkg/logger"
	"github.com/yigit/moderator/internal/pkg/websocket"
	"github.com/yigit/moderator/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	Repos          *appRepos.Repositories
	JWTService     *pkgAuth.JWTService
	Sender         email.Sender
	Hub            *websocket.Hub
	Logger         zerolog.Logger
}

// Storage is the opened persistence layer with its health probe and release function
type Storage struct {
	Repos *appRepos.Repositories
	Ping  appControllers.PingFunc
	Close func()
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured store. Postgres is migrated on open; the memory
// store is seeded with the development users.
func SetupStorage(cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	if cfg.Database.Driver == config.DriverMemory {
		lgr.Warn().Msg("Using in-memory storage; data is lost on restart")
		repos, _ := memoryRepos.NewRepositories()
		if err := seed.CreateDefaultData(context.Background(), repos, time.Now(), lgr); err != nil {
			return nil, fmt.Errorf("seed memory store: %w", err)
		}
		return &Storage{Repos: repos, Close: func() {}}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, lgr)

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	repos := appRepos.NewRepositories(database)
	if cfg.IsDevelopment() {
		if err := seed.CreateDefaultData(ctx, repos, time.Now(), lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	return &Storage{Repos: repos, Ping: database.Ping, Close: database.Close}, nil
}

// BuildDependencies initializes services, middleware and controllers over the opened storage.
func BuildDependencies(cfg *config.Config, storage *Storage, lgr zerolog.Logger) *Dependencies {
	repos := storage.Repos
	deps := &Dependencies{Logger: lgr, Repos: repos}

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	deps.Sender = email.NewSender(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
	}, lgr.With().Str("component", "email").Logger())

	// started by the server; publishes never block before that
	deps.Hub = websocket.NewHub(lgr)

	deps.Services = appServices.NewServices(repos, deps.Sender, deps.JWTService, appServices.Options{
		PageSize:       cfg.Server.ItemsPerPage,
		DevLoginActive: cfg.DevLoginEnabled(),
		Publisher:      deps.Hub,
	}, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, repos.UserRepository)

	deps.Controllers = appRoutes.Controllers{
		Auth:     appControllers.NewAuthController(deps.Services.AuthService),
		Event:    appControllers.NewEventController(deps.Services.EventService),
		Question: appControllers.NewQuestionController(deps.Services.QuestionService),
		User:     appControllers.NewUserController(deps.Services.UserService),
		Export:   appControllers.NewExportController(deps.Services.ExportService),
		Live:     websocket.NewHandler(deps.Hub, deps.Services.EventService.Visible, lgr),
		Health:   appControllers.NewHealthController(storage.Ping),
	}
	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}
	appMiddleware.RegisterValidators()

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestID(), appMiddleware.RequestLogger(lgr))

	if cfg.IsDevelopment() {
		appRoutes.SetupSwagger(router)
	}
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
