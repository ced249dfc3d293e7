package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/access-control/internal"
	"github.com/frahmantamala/access-control/internal/access"
	"github.com/frahmantamala/access-control/internal/account"
	"github.com/frahmantamala/access-control/internal/core/events"
	"github.com/frahmantamala/access-control/internal/credential"
	credentialPostgres "github.com/frahmantamala/access-control/internal/credential/postgres"
	privilegePostgres "github.com/frahmantamala/access-control/internal/privilege/postgres"
	"github.com/frahmantamala/access-control/internal/session"
	userPostgres "github.com/frahmantamala/access-control/internal/user/postgres"
	"github.com/frahmantamala/access-control/pkg/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

type Stores struct {
	Actions     *privilegePostgres.ActionStore
	Permissions *privilegePostgres.PermissionStore
	Roles       *privilegePostgres.RoleStore
	Users       *userPostgres.UserStore
	Credentials *credentialPostgres.CredentialStore
}

// EnsureTables bootstraps every table in dependency order.
func (s *Stores) EnsureTables(ctx context.Context) error {
	steps := []struct {
		name   string
		ensure func(context.Context) (bool, error)
	}{
		{"actions", s.Actions.EnsureTableExists},
		{"permissions", s.Permissions.EnsureTableExists},
		{"roles", s.Roles.EnsureTableExists},
		{"users", s.Users.EnsureTableExists},
		{"credentials", s.Credentials.EnsureTableExists},
	}
	for _, step := range steps {
		if _, err := step.ensure(ctx); err != nil {
			return fmt.Errorf("ensure %s table: %w", step.name, err)
		}
	}
	return nil
}

type Dependencies struct {
	Config    *internal.Config
	Logger    *slog.Logger
	SQL       *sqlx.DB
	Gorm      *gorm.DB
	Redis     *redis.Client
	Stores    *Stores
	Accounts  *account.Service
	Sessions  session.Manager
	Validator *access.Validator
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.SQL.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Format, config.Logging.Level)
	lg := logger.LoggerWrapper()

	sqlDB, gormDB, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	stores := newStores(gormDB, lg)

	bus := events.NewEventBus(lg)
	bus.SubscribeAll(events.AuditLogger(lg.With("component", "audit")), events.AccountEventTypes...)

	hasher := credential.NewBcryptHasher(config.Security.BCryptCost)
	credentials := credential.NewService(stores.Credentials, hasher, lg)
	accounts := account.NewService(stores.Users, stores.Roles, credentials, bus, lg)

	deps := &Dependencies{
		Config:   config,
		Logger:   lg,
		SQL:      sqlDB,
		Gorm:     gormDB,
		Stores:   stores,
		Accounts: accounts,
	}

	switch config.Session.Backend {
	case internal.SessionBackendRedis:
		deps.Redis = redis.NewClient(&redis.Options{
			Addr:     config.Session.RedisAddr,
			Password: config.Session.RedisPassword,
			DB:       config.Session.RedisDB,
		})
		deps.Sessions = session.NewRedisStore(deps.Redis, sessionTTL(config), lg)
	default:
		deps.Sessions = session.NewTokenProvider(config.Security.SessionSecret, sessionTTL(config), lg)
	}

	deps.Validator = access.NewValidator(deps.Sessions, stores.Users, lg)
	return deps, nil
}

func newStores(db *gorm.DB, lg *slog.Logger) *Stores {
	actions := privilegePostgres.NewActionStore(db, lg)
	permissions := privilegePostgres.NewPermissionStore(db, actions, lg)
	roles := privilegePostgres.NewRoleStore(db, permissions, lg)
	return &Stores{
		Actions:     actions,
		Permissions: permissions,
		Roles:       roles,
		Users:       userPostgres.NewUserStore(db, roles, lg),
		Credentials: credentialPostgres.NewCredentialStore(db, lg),
	}
}

func sessionTTL(cfg *internal.Config) time.Duration {
	if cfg.Session.TTL > 0 {
		return cfg.Session.TTL
	}
	return cfg.Security.TokenTTL
}

// initDB opens the sql pool and a gorm handle sharing it.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, *gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Warn)}

	if cfg.Driver == internal.DriverSQLite {
		gormDB, err := gorm.Open(sqlite.Open(cfg.DSN()), gormConfig)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, nil, err
		}
		sqlDB.SetMaxOpenConns(1)
		return sqlx.NewDb(sqlDB, "sqlite3"), gormDB, nil
	}

	const driver = "pgx"
	dbConn, err := sqlx.Connect(driver, cfg.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: dbConn.DB}), gormConfig)
	if err != nil {
		_ = dbConn.Close()
		return nil, nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
	}

	return dbConn, gormDB, nil
}
