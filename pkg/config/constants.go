package config

// EnvPrefix scopes every environment variable the service reads.
const EnvPrefix = "STORESYNC"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv       = "STORESYNC_APP_ENV"
	EnvPort         = "STORESYNC_APP_PORT"
	EnvLogLevel     = "STORESYNC_LOG_LEVEL"
	EnvDBDSN        = "STORESYNC_DB_DSN"
	EnvDBHost       = "STORESYNC_DB_HOST"
	EnvDBUser       = "STORESYNC_DB_USER"
	EnvDBName       = "STORESYNC_DB_NAME"
	EnvRedisURL     = "STORESYNC_REDIS_URL"
	EnvJWTSecret    = "STORESYNC_JWT_SECRET"
	EnvJWTIssuer    = "STORESYNC_JWT_ISSUER"
	EnvJWTExpMins   = "STORESYNC_JWT_EXPIRATION_MINUTES"
	EnvUploadsRoot  = "STORESYNC_MEDIA_UPLOADS_ROOT"
	EnvSourceTenant = "STORESYNC_SYNC_SOURCE_TENANT_ID"
)

var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
