package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func TestApplyPlatformDefaults(t *testing.T) {
	cfg := Config{
		Addr:    "0.0.0.0:8080",
		Store:   StoreConfig{Backend: "Postgres"},
		Session: SessionConfig{Backend: "REDIS"},
	}
	cfg.applyPlatformDefaults(env(map[string]string{
		"DATABASE_URL": "postgres://kart@db/kart",
		"MONGO_URL":    "mongodb://mongo/?replicaSet=rs0",
		"REDIS_URL":    "redis://cache:6379/0",
		"PORT":         "9090",
	}))

	assert.Equal(t, "0.0.0.0:9090", cfg.Addr)
	assert.Equal(t, "postgres://kart@db/kart", cfg.Store.DatabaseURL)
	assert.Equal(t, "mongodb://mongo/?replicaSet=rs0", cfg.Store.MongoURI)
	assert.Equal(t, "redis://cache:6379/0", cfg.Session.RedisAddr)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, BackendRedis, cfg.Session.Backend)
}

func TestApplyPlatformDefaults_ExplicitWins(t *testing.T) {
	cfg := Config{
		Addr:  "127.0.0.1:7000",
		Store: StoreConfig{DatabaseURL: "postgres://explicit"},
	}
	cfg.applyPlatformDefaults(env(map[string]string{
		"DATABASE_URL": "postgres://platform",
		"PORT":         "9090",
	}))

	assert.Equal(t, "127.0.0.1:7000", cfg.Addr)
	assert.Equal(t, "postgres://explicit", cfg.Store.DatabaseURL)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			AdminPassword: "admin123",
			Store:         StoreConfig{Backend: BackendMemory},
			Session:       SessionConfig{Backend: BackendMemory},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "Memory", mutate: func(*Config) {}},
		{name: "PostgresWithURL", mutate: func(c *Config) {
			c.Store.Backend = BackendPostgres
			c.Store.DatabaseURL = "postgres://db"
		}},
		{name: "PostgresWithoutURL", mutate: func(c *Config) {
			c.Store.Backend = BackendPostgres
		}, wantErr: "database URL is required"},
		{name: "MongoWithoutURI", mutate: func(c *Config) {
			c.Store.Backend = BackendMongo
		}, wantErr: "mongo URI is required"},
		{name: "UnknownStore", mutate: func(c *Config) {
			c.Store.Backend = "sqlite"
		}, wantErr: `unknown store backend "sqlite"`},
		{name: "RedisWithoutAddr", mutate: func(c *Config) {
			c.Session.Backend = BackendRedis
		}, wantErr: "redis address is required"},
		{name: "EmptyPassword", mutate: func(c *Config) {
			c.AdminPassword = ""
		}, wantErr: "admin password must not be empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLocation(t *testing.T) {
	cfg := Config{Timezone: "Local"}
	loc, err := cfg.location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	cfg.Timezone = "UTC"
	loc, err = cfg.location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)

	cfg.Timezone = "Mars/Olympus"
	_, err = cfg.location()
	assert.Error(t, err)
}

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions("cache:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)

	opts, err = redisOptions("redis://:pw@cache:6380/2")
	require.NoError(t, err)
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
}
