package config

// EnvPrefix namespaces every environment variable read by envconfig.
const EnvPrefix = "roomscout"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ROOMSCOUT_DB_DSN"
	EnvDBHost = "ROOMSCOUT_DB_HOST"
	EnvDBUser = "ROOMSCOUT_DB_USER"
	EnvDBName = "ROOMSCOUT_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
