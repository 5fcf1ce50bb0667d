package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/logger"
	"github.com/suaiden-dev/matriculausa-mvp-sub011/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	DatabaseConfig *DatabaseConfig
	VaultConfig    *VaultConfig
	ProviderConfig *ProviderConfig
	RelayConfig    *RelayConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		DatabaseConfig: &DatabaseConfig{},
		VaultConfig:    &VaultConfig{},
		ProviderConfig: &ProviderConfig{},
		RelayConfig:    &RelayConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		return nil, errors.Wrap(err, "error loading mailrelay config")
	}

	return config, nil
}
