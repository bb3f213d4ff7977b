package config

import "time"

type Config interface {
	EnvConfig
	CorsConfig
	TokenConfig
	ClientConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetLogLevel() string
	GetDatabaseURL() string
	GetSeedUserEmail() string
	GetSeedUserPassword() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type TokenConfig interface {
	GetJWTSecret() string
	GetTokenExpiry() time.Duration
}

type ClientConfig interface {
	GetDataFolder() string
	GetServerURL() string
}

type mainConfig struct {
	EnvVars
	Cors
	Token
	Client
}

func New() Config {
	return mainConfig{}
}
