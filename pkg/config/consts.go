package config

// EnvPrefix is passed to envconfig; individual fields carry fully-qualified
// names so the prefix stays empty.
const EnvPrefix = ""

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced outside struct tags (tests, error
// messages).
const (
	EnvAppEnv   = "DIGIMART_APP_ENV"
	EnvPort     = "DIGIMART_APP_PORT"
	EnvDBDSN    = "DIGIMART_DB_DSN"
	EnvDBHost   = "DIGIMART_DB_HOST"
	EnvDBUser   = "DIGIMART_DB_USER"
	EnvDBName   = "DIGIMART_DB_NAME"
	EnvRedisURL = "DIGIMART_REDIS_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
