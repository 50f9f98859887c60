package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("NOTES_AUTH_JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:3001", cfg.Server.Addr)
	assert.True(t, cfg.Server.Gzip)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "data/notes.db", cfg.Database.Path)
	assert.Equal(t, 0, cfg.Auth.TokenTTLMinutes)
	assert.False(t, cfg.Auth.EnforceOwnership)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, time.Duration(0), cfg.TokenTTL())

	assert.ErrorContains(t, cfg.Validate(), "jwt secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("NOTES_SERVER_ADDR", "127.0.0.1:9999")
	t.Setenv("NOTES_DATABASE_DRIVER", "Mongo")
	t.Setenv("NOTES_DATABASE_MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("NOTES_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("NOTES_AUTH_TOKEN_TTL_MINUTES", "60")
	t.Setenv("NOTES_AUTH_ENFORCE_OWNERSHIP", "true")
	t.Setenv("NOTES_STORAGE_KEY_PREFIX", "backups")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
	assert.Equal(t, DriverMongo, cfg.Database.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.MongoURI)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.True(t, cfg.Auth.EnforceOwnership)
	assert.Equal(t, time.Hour, cfg.TokenTTL())
	assert.Equal(t, "backups", cfg.Storage.KeyPrefix)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Auth.JWTSecret = "k"
		c.Database.Driver = DriverSQLite
		c.Database.Path = "data/notes.db"
		return c
	}

	c := valid()
	require.NoError(t, c.Validate())

	c = valid()
	c.Database.Driver = "postgres"
	assert.ErrorContains(t, c.Validate(), "unsupported database driver")

	c = valid()
	c.Database.Driver = DriverMongo
	assert.ErrorContains(t, c.Validate(), "mongo uri")

	c = valid()
	c.Auth.TokenTTLMinutes = -5
	assert.ErrorContains(t, c.Validate(), "ttl")
}
