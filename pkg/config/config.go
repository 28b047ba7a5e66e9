package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Media        MediaConfig
	Sync         SyncConfig
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
	Env          string `envconfig:"STORESYNC_APP_ENV" required:"true"`
	Port         string `envconfig:"STORESYNC_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STORESYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STORESYNC_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"STORESYNC_DB_DSN"`
	Driver string `envconfig:"STORESYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"STORESYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"STORESYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STORESYNC_DB_USER"`
	LegacyPassword string `envconfig:"STORESYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"STORESYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"STORESYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STORESYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STORESYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STORESYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STORESYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STORESYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STORESYNC_REDIS_ADDR"`
	Password     string        `envconfig:"STORESYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"STORESYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STORESYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STORESYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STORESYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STORESYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STORESYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STORESYNC_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STORESYNC_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STORESYNC_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STORESYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STORESYNC_AUTO_MIGRATE" default:"false"`
}

type MediaConfig struct {
	UploadsRoot  string `envconfig:"STORESYNC_MEDIA_UPLOADS_ROOT" default:"/var/lib/storesync/uploads"`
	ThumbWidth   int    `envconfig:"STORESYNC_MEDIA_THUMB_WIDTH" default:"150"`
	MediumWidth  int    `envconfig:"STORESYNC_MEDIA_MEDIUM_WIDTH" default:"300"`
	LargeWidth   int    `envconfig:"STORESYNC_MEDIA_LARGE_WIDTH" default:"1024"`
	MaxUploadMB  int    `envconfig:"STORESYNC_MAX_UPLOAD_MB" default:"200"`
	SiteDirParts int    `envconfig:"STORESYNC_MEDIA_SITE_DIR_PARTS" default:"2"`
}

type SyncConfig struct {
	SourceTenantID int64         `envconfig:"STORESYNC_SYNC_SOURCE_TENANT_ID" default:"1"`
	BulkBatchSize  int           `envconfig:"STORESYNC_SYNC_BULK_BATCH_SIZE" default:"5"`
	BulkStateTTL   time.Duration `envconfig:"STORESYNC_SYNC_BULK_STATE_TTL" default:"1h"`
	ActivityCap    int           `envconfig:"STORESYNC_SYNC_ACTIVITY_CAP" default:"1000"`
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
