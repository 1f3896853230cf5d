package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DATABASE_URL", "JWT_TTL_HOURS", "FY_START_MONTH", "ALLOW_NEGATIVE_STOCK", "LOW_STOCK_THRESHOLD"} {
		t.Setenv(k, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, time.April, cfg.FinancialYearStart)
	assert.False(t, cfg.AllowNegativeStock)
	assert.Equal(t, "10", cfg.LowStockThreshold.String())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FY_START_MONTH", "1")
	t.Setenv("ALLOW_NEGATIVE_STOCK", "true")
	t.Setenv("LOW_STOCK_THRESHOLD", "2.5")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/books")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, time.January, cfg.FinancialYearStart)
	assert.True(t, cfg.AllowNegativeStock)
	assert.Equal(t, "2.5", cfg.LowStockThreshold.String())
	assert.Equal(t, "postgres://u:p@db:5432/books", cfg.DSN())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := map[string]string{
		"FY_START_MONTH":       "13",
		"JWT_TTL_HOURS":        "zero",
		"ALLOW_NEGATIVE_STOCK": "maybe",
		"LOW_STOCK_THRESHOLD":  "ten",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}

func TestDSN_FromParts(t *testing.T) {
	cfg := &Config{DBHost: "h", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "1", DBTimeZone: "UTC"}
	assert.Equal(t, "host=h user=u password=p dbname=n port=1 sslmode=disable TimeZone=UTC", cfg.DSN())
}
