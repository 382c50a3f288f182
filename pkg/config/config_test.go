package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, 25, cfg.DB.MaxConns)
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout)
	assert.Zero(t, cfg.Ledger.ReconcileInterval, "la conciliación programada viene apagada")
	assert.Equal(t, 4, cfg.Ledger.ReconcileWorkers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("DB_DRIVER", "MEMORY")
	t.Setenv("LEDGER_LOCK_TIMEOUT_MS", "250")
	t.Setenv("LEDGER_RECONCILE_INTERVAL_MIN", "15")
	t.Setenv("LEDGER_RECONCILE_WORKERS", "0")
	t.Setenv("LEDGER_RECONCILE_ON_START", "true")
	t.Setenv("HTTP_PORT", "9090")

	v := viper.New()
	v.AutomaticEnv()
	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.DB.Driver)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.LockTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Ledger.ReconcileInterval)
	assert.Equal(t, 1, cfg.Ledger.ReconcileWorkers, "workers se acota a 1 como mínimo")
	assert.True(t, cfg.Ledger.ReconcileOnStart)
	assert.Equal(t, 9090, cfg.HTTP.Port)
}

func TestLoad_DriverDesconocido(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	v := viper.New()
	v.AutomaticEnv()
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss/word", DBName: "ledger", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%2Fword@db:5432/ledger?sslmode=disable", c.DSN())
	assert.Equal(t, c.DSN(), c.ConnectionString())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
