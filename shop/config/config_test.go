package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/grocerybot/shop/session"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
telegram:
  token: "123:abc"
database:
  host: localhost
  name: grocery
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
	assert.True(t, cfg.Shop.MinOrderAmount.Equal(DefaultMinOrder))
	assert.Equal(t, session.BackendMemory, cfg.Session.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Session.IdleTTL)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "Europe/Moscow", cfg.Shop.Location().String())
	assert.NotEmpty(t, cfg.Shop.AboutText)
}

func TestLoadReadsShopSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal+`
shop:
  min_order_amount: "1500.50"
  bypass_zone: " Центр "
  admin_ids: [11, 12]
session:
  backend: redis
  idle_ttl: 30m
redis:
  addr: localhost:6379
`))
	require.NoError(t, err)

	assert.True(t, cfg.Shop.MinOrderAmount.Equal(decimal.RequireFromString("1500.50")))
	assert.Equal(t, "Центр", cfg.Shop.BypassZone)
	assert.Equal(t, []int64{11, 12}, cfg.Shop.AdminIDs)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTTL)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SHOP_BYPASS_ZONE", "Пригород")
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, "Пригород", cfg.Shop.BypassZone)
}

func TestNormalizeRejects(t *testing.T) {
	cases := map[string]string{
		"redis without addr": minimal + "session:\n  backend: redis\n",
		"unknown backend":    minimal + "session:\n  backend: etcd\n",
		"negative minimum":   minimal + "shop:\n  min_order_amount: \"-1\"\n",
		"bad timezone":       minimal + "shop:\n  timezone: Mars/Olympus\n",
		"missing database":   "telegram:\n  token: \"1:x\"\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}
