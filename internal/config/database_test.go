package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "saga",
		User:     "saga",
		Password: "secret",
		SSLMode:  "verify-full",
	}

	assert.Equal(t,
		"host=db.internal port=5432 user=saga password=secret dbname=saga sslmode=verify-full",
		cfg.DSN())
}

func TestDatabaseConfig_DSNDefaultsToRequire(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		Name:     "saga",
		User:     "saga",
		Password: "secret",
	}

	assert.Contains(t, cfg.DSN(), "sslmode=require")
}
