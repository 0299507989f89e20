package config

// EnvPrefix is the envconfig prefix for all service variables.
const EnvPrefix = "EQUIPLEND"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv  = "EQUIPLEND_APP_ENV"
	EnvAppPort = "EQUIPLEND_APP_PORT"

	EnvDBDSN  = "EQUIPLEND_DB_DSN"
	EnvDBHost = "EQUIPLEND_DB_HOST"
	EnvDBUser = "EQUIPLEND_DB_USER"
	EnvDBName = "EQUIPLEND_DB_NAME"

	EnvRedisURL = "EQUIPLEND_REDIS_URL"

	EnvJWTSecret            = "EQUIPLEND_JWT_SECRET"
	EnvJWTIssuer            = "EQUIPLEND_JWT_ISSUER"
	EnvJWTExpirationMinutes = "EQUIPLEND_JWT_EXPIRATION_MINUTES"
)

// legacyDBEnvVars are the discrete connection variables accepted in place of
// a full DSN.
var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
