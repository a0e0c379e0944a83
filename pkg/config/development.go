package config

import (
	"os"
	"strconv"
)

// loadDevelopmentConfig seeds local defaults. File and environment values
// still override them.
func loadDevelopmentConfig(cfg *Config) {
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.ServerPort = port
	}
	cfg.DatabaseDebug = true
	cfg.DatabaseFilePath = "./tmp/catalog.sqlite"
	cfg.ServerHost = "127.0.0.1"
}
