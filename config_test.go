package dashboard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_root: /srv/trading
reporting_currency: JPY
fx_table: /srv/trading/DEXJPUS.csv
fx_mode: last
horizon: 2026-12
brokers: [rakuten]
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/trading", cfg.DataRoot)
	assert.Equal(t, RateLast, cfg.RateMode())
	assert.Equal(t, "2026-12", cfg.HorizonMonth().String())
	assert.Equal(t, []string{"rakuten"}, cfg.Brokers)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Brokers = []string{"schwab"}
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Horizon = "December 2026"
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.FXMode = "spot"
	assert.Error(t, bad.Validate())
}

func TestConfigPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataRoot = "/srv/trading"
	assert.Equal(t, "/srv/trading/trading_account/realized_pl/raw/rakuten", cfg.RawDir("rakuten"))
	assert.Equal(t, "/srv/trading/trading_account/realized_pl/master/master_realized_pl_merged.parquet", cfg.MasterPath("merged"))
	assert.Equal(t, "/srv/trading/trading_account/realized_pl/checkpoints", cfg.CheckpointsDir())
}

func TestConfigHorizonUnsetIsZero(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.HorizonMonth().IsZero())
}
