package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Cron          CronConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EQUIPLEND_APP_ENV" required:"true"`
	Port         string `envconfig:"EQUIPLEND_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EQUIPLEND_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EQUIPLEND_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"EQUIPLEND_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EQUIPLEND_DB_DSN"`
	Driver string `envconfig:"EQUIPLEND_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EQUIPLEND_DB_HOST"`
	LegacyPort     int    `envconfig:"EQUIPLEND_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EQUIPLEND_DB_USER"`
	LegacyPassword string `envconfig:"EQUIPLEND_DB_PASSWORD"`
	LegacyName     string `envconfig:"EQUIPLEND_DB_NAME"`
	LegacySSLMode  string `envconfig:"EQUIPLEND_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EQUIPLEND_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EQUIPLEND_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EQUIPLEND_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EQUIPLEND_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"EQUIPLEND_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EQUIPLEND_REDIS_ADDR"`
	Password     string        `envconfig:"EQUIPLEND_REDIS_PASSWORD"`
	DB           int           `envconfig:"EQUIPLEND_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EQUIPLEND_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EQUIPLEND_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EQUIPLEND_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EQUIPLEND_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EQUIPLEND_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"EQUIPLEND_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EQUIPLEND_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EQUIPLEND_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"EQUIPLEND_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"EQUIPLEND_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"EQUIPLEND_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"EQUIPLEND_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"EQUIPLEND_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"EQUIPLEND_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type CronConfig struct {
	OverdueSweepInterval time.Duration `envconfig:"EQUIPLEND_CRON_OVERDUE_SWEEP_INTERVAL" default:"15m"`
	OverdueSweepBatch    int           `envconfig:"EQUIPLEND_CRON_OVERDUE_SWEEP_BATCH" default:"100"`
	LockTTL              time.Duration `envconfig:"EQUIPLEND_CRON_LOCK_TTL" default:"5m"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"EQUIPLEND_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"EQUIPLEND_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
