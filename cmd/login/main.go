package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-login-server/internal/config"
	"github.com/jrsteele09/go-login-server/internal/logging"
)

func main() {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	c := config.New()
	logging.Init(c.GetLogLevel(), c.GetEnv())

	if err := NewRootCmd(c).Execute(); err != nil {
		os.Exit(1)
	}
}
