package config

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vars map[string]string) func(string) string {
	return func(key string) string { return vars[key] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"DATABASE_URL": "postgres://localhost/fastclub"}))
	require.NoError(t, err)

	assert.Equal(t, "migrations", cfg.MigrationsPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 50, cfg.LogMaxSizeMB)
	assert.Equal(t, 5, cfg.LogMaxBackups)
	assert.Equal(t, 28, cfg.LogMaxAgeDays)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "9090", cfg.PrometheusPort)
	assert.Equal(t, 6, cfg.MeetingHorizonMonths)
	assert.True(t, cfg.AnnualFeeAmount.IsZero())
	assert.Equal(t, time.Hour, cfg.SweepInterval)
	assert.Equal(t, time.Local, cfg.Timezone)
	assert.False(t, cfg.BotEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"DATABASE_URL":           "postgres://localhost/fastclub",
		"TELEGRAM_TOKEN":         "123:abc",
		"MEETING_HORIZON_MONTHS": "3",
		"ANNUAL_FEE_AMOUNT":      "120.50",
		"SWEEP_INTERVAL":         "15m",
		"TIMEZONE":               "Europe/Berlin",
		"LOG_FILE":               "/var/log/fastclub.log",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.BotEnabled())
	assert.Equal(t, 3, cfg.MeetingHorizonMonths)
	assert.True(t, decimal.RequireFromString("120.50").Equal(cfg.AnnualFeeAmount))
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone.String())
	assert.Equal(t, "/var/log/fastclub.log", cfg.LogFile)
}

func TestFromEnv_ReportsEveryError(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"LOG_MAX_SIZE_MB":   "big",
		"ANNUAL_FEE_AMOUNT": "ten",
		"SWEEP_INTERVAL":    "hourly",
		"TIMEZONE":          "Mars/Olympus",
	}))
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "LOG_MAX_SIZE_MB")
	assert.Contains(t, err.Error(), "Mars/Olympus")
}

func TestFromEnv_HorizonIsBounded(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"DATABASE_URL":           "postgres://localhost/fastclub",
		"MEETING_HORIZON_MONTHS": "240",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEETING_HORIZON_MONTHS")
}

func TestFromEnv_RejectsNegativeValues(t *testing.T) {
	_, err := FromEnv(env(map[string]string{
		"DATABASE_URL":           "postgres://localhost/fastclub",
		"MEETING_HORIZON_MONTHS": "-1",
		"ANNUAL_FEE_AMOUNT":      "-5",
		"SWEEP_INTERVAL":         "0s",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MEETING_HORIZON_MONTHS")
	assert.Contains(t, err.Error(), "ANNUAL_FEE_AMOUNT")
	assert.Contains(t, err.Error(), "SWEEP_INTERVAL")
}
