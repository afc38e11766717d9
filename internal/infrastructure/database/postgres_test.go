package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Conte777/newsdigest/config"
)

func TestDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:     "db",
		Port:     "5433",
		User:     "digest",
		Password: "secret",
		Name:     "ratings",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=db port=5433 user=digest password=secret dbname=ratings sslmode=disable",
		DSN(cfg))
}
