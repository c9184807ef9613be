package config

// EnvPrefix is passed to envconfig; every field carries its full variable name.
const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv          = "STOREFRONT_APP_ENV"
	EnvPort            = "STOREFRONT_APP_PORT"
	EnvDBDSN           = "STOREFRONT_DB_DSN"
	EnvDBHost          = "STOREFRONT_DB_HOST"
	EnvDBUser          = "STOREFRONT_DB_USER"
	EnvDBName          = "STOREFRONT_DB_NAME"
	EnvRedisURL        = "STOREFRONT_REDIS_URL"
	EnvSessionSecret   = "STOREFRONT_SESSION_SECRET"
	EnvUseSQLite       = "STOREFRONT_USE_SQLITE"
	EnvMerchantName    = "STOREFRONT_MERCHANT_NAME"
	EnvDispatchTimeout = "STOREFRONT_DISPATCH_TIMEOUT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

const (
	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)
