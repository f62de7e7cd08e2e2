package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://kassa@localhost/kassa")
	t.Setenv("STOCK_CACHE_TTL", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 45*time.Second, cfg.StockCacheTTL)
	require.Equal(t, "Цех", cfg.WorkshopBranchName)
	require.EqualValues(t, 20, cfg.PGMaxConns)
	require.False(t, cfg.IsProduction())
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	t.Setenv("PG_MAX_CONNS", "0")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnparsable(t *testing.T) {
	t.Setenv("AUTO_MIGRATE", "maybe")
	_, err := LoadConfig()
	require.Error(t, err)
}
