package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar          = "PORT"
	appNameVar          = "APP_NAME"
	envVar              = "ENV"
	logLevelVar         = "LOG_LEVEL"
	databaseURLVar      = "DATABASE_URL"
	seedUserEmailVar    = "SEED_USER_EMAIL"
	seedUserPasswordVar = "SEED_USER_PASSWORD"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Login Server")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

// GetDatabaseURL returns the Postgres connection string for the user store.
// An empty value selects the in-memory user repo.
func (EnvVars) GetDatabaseURL() string {
	return GetEnv(databaseURLVar, "")
}

func (EnvVars) GetSeedUserEmail() string {
	return GetEnv(seedUserEmailVar, "")
}

func (EnvVars) GetSeedUserPassword() string {
	return GetEnv(seedUserPasswordVar, "")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
