package config

const EnvPrefix = "QUOTEBUILDER"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	DefaultSQLiteDSN = "file:quotebuilder.db?cache=shared&_fk=1"
)

const (
	EnvAppEnv   = "QUOTEBUILDER_APP_ENV"
	EnvPort     = "QUOTEBUILDER_APP_PORT"
	EnvLogLevel = "QUOTEBUILDER_LOG_LEVEL"

	EnvDBDSN    = "QUOTEBUILDER_DB_DSN"
	EnvDBDriver = "QUOTEBUILDER_DB_DRIVER"
	EnvDBHost   = "QUOTEBUILDER_DB_HOST"
	EnvDBUser   = "QUOTEBUILDER_DB_USER"
	EnvDBName   = "QUOTEBUILDER_DB_NAME"

	EnvRedisURL = "QUOTEBUILDER_REDIS_URL"

	EnvQuotationCurrency     = "QUOTEBUILDER_QUOTATION_CURRENCY"
	EnvQuotationValidityDays = "QUOTEBUILDER_QUOTATION_VALIDITY_DAYS"
	EnvQuotationLocale       = "QUOTEBUILDER_QUOTATION_LOCALE"

	EnvEditorSessionTTL     = "QUOTEBUILDER_EDITOR_SESSION_TTL"
	EnvEditorSearchDebounce = "QUOTEBUILDER_EDITOR_SEARCH_DEBOUNCE"

	EnvUseSQLite = "QUOTEBUILDER_USE_SQLITE"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
