package config

// EnvPrefix is the envconfig prefix shared by every variable below.
const EnvPrefix = "COVERLANE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv     = "COVERLANE_APP_ENV"
	EnvAppPort    = "COVERLANE_APP_PORT"
	EnvRedisURL   = "COVERLANE_REDIS_URL"
	EnvAuthSecret = "COVERLANE_AUTH_JWT_SECRET"
)
