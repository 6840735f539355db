package bootstrap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/yigit/enrollment/internal/app/controllers"
	appMigrations "github.com/yigit/enrollment/internal/app/migrations"
	"github.com/yigit/enrollment/internal/app/registrar"
	appRepos "github.com/yigit/enrollment/internal/app/repositories"
	sqliteRepos "github.com/yigit/enrollment/internal/app/repositories/sqlite"
	appRoutes "github.com/yigit/enrollment/internal/app/routes"
	"github.com/yigit/enrollment/internal/app/storage"
	"github.com/yigit/enrollment/internal/config"
	"github.com/yigit/enrollment/internal/db"
	appMiddleware "github.com/yigit/enrollment/internal/middleware"
	pkgAuth "github.com/yigit/enrollment/internal/pkg/auth"
	"github.com/yigit/enrollment/internal/pkg/helpers"
	"github.com/yigit/enrollment/internal/pkg/logger"
	"github.com/yigit/enrollment/internal/seed"
)

// Storage is the opened backend shared by every component
type Storage struct {
	Driver      string
	Enrollments storage.EnrollmentStore
	Catalog     storage.CatalogStore
	close       func() error
}

// Close releases the backend connections
func (s *Storage) Close() error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close()
}

// Dependencies holds all the application dependencies
type Dependencies struct {
	Registrar            *registrar.Registrar
	EnrollmentController *appControllers.EnrollmentController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	JWTService           *pkgAuth.JWTService
	Logger               zerolog.Logger
}

// DefaultConfigPath is used when CONFIG_PATH is unset
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", DefaultConfigPath)
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: logger.ParseFormat(cfg.Logging.Format),
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured backend, applies migrations and seeds demo
// data when enabled.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*Storage, error) {
	txTimeout := db.TxTimeout(cfg)

	var store *Storage
	switch strings.ToLower(cfg.Database.Driver) {
	case config.DriverSQLite:
		lgr.Info().Str("path", cfg.Database.SQLitePath).Msg("Opening SQLite database...")
		sqliteStore, err := sqliteRepos.Open(ctx, cfg.Database.SQLitePath, txTimeout)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to open SQLite database")
			return nil, err
		}
		store = &Storage{
			Driver:      config.DriverSQLite,
			Enrollments: sqliteStore,
			Catalog:     sqliteStore,
			close:       sqliteStore.Close,
		}

	case config.DriverPostgres:
		lgr.Info().Msg("Establishing database connection...")
		database, err := db.NewPostgresDB(ctx, cfg)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to database")
			return nil, err
		}
		lgr.Info().Msg("Database connection successfully established.")

		lgr.Info().Msg("Running database migrations...")
		migrator := appMigrations.NewMigrator(database.Pool, lgr)
		if err := migrator.Migrate(ctx, appMigrations.FS, appMigrations.PostgresRoot); err != nil {
			lgr.Error().Err(err).Msg("Database migration error")
			database.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}
		lgr.Info().Msg("Database migrations successfully applied.")

		repos := appRepos.NewRepositories(database.Pool, database.TxTimeout)
		store = &Storage{
			Driver:      config.DriverPostgres,
			Enrollments: repos.EnrollmentRepository,
			Catalog:     repos.CatalogRepository,
			close: func() error {
				database.Close()
				return nil
			},
		}

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}

	if cfg.Seed.Enabled {
		if err := seed.CreateDefaultData(ctx, store.Catalog, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}
	return store, nil
}

// NewJWTService builds the token service from configuration
func NewJWTService(cfg *config.Config) *pkgAuth.JWTService {
	return pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
}

// BuildDependencies initializes the registrar, controllers and middleware.
func BuildDependencies(cfg *config.Config, store *Storage, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	policy, err := registrar.NewPolicy(cfg.Registration.UnitCap)
	if err != nil {
		return nil, fmt.Errorf("failed to build capacity policy: %w", err)
	}
	deps.Registrar, err = registrar.New(store.Enrollments, policy, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to build registrar: %w", err)
	}

	deps.JWTService = NewJWTService(cfg)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)
	deps.EnrollmentController = appControllers.NewEnrollmentController(deps.Registrar, cfg.Registration.MaxBatch)

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupRouter(router, deps.EnrollmentController, deps.AuthMiddleware)

	return router
}
