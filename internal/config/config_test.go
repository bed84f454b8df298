package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range map[string]string{
		"APP_ENV":                "test",
		"APP_PORT":               "8080",
		"DB_USER":                "root",
		"DB_HOST":                "127.0.0.1",
		"DB_PORT":                "3306",
		"DB_NAME":                "ticketing",
		"JWT_SECRET":             "test-secret",
		"ACCESS_TOKEN_TTL_MIN":   "15",
		"REFRESH_TOKEN_TTL_DAYS": "7",
		"BCRYPT_COST":            "4",
	} {
		t.Setenv(k, v)
	}
}

func TestLoad_PoolAndWindowDefaults(t *testing.T) {
	setRequiredEnv(t)
	cfg := Load()

	assert.Equal(t, 25, cfg.DBMaxOpen)
	assert.Equal(t, 25, cfg.DBMaxIdle)
	assert.Equal(t, 30, cfg.DBConnLifeMin)
	assert.Equal(t, 15, cfg.HoldTTLMin)
	assert.Equal(t, 15, cfg.ReserveTTLMin)
	assert.Equal(t, 24, cfg.CancelMinHours)
}

func TestLoad_PoolOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DB_MAX_OPEN_CONNS", "50")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("DB_CONN_LIFETIME_MIN", "5")
	cfg := Load()

	assert.Equal(t, 50, cfg.DBMaxOpen)
	assert.Equal(t, 10, cfg.DBMaxIdle)
	assert.Equal(t, 5, cfg.DBConnLifeMin)
}

func TestIntDefault_MalformedFallsBack(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	assert.Equal(t, 25, intDefault("DB_MAX_OPEN_CONNS", 25))
}
