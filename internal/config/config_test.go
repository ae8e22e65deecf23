package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDurationUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		json string
		want time.Duration
		err  bool
	}{
		{name: "string", json: `"5m"`, want: 5 * time.Minute},
		{name: "number", json: `1000000000`, want: time.Second},
		{name: "garbage", json: `"not a duration"`, err: true},
		{name: "wrong type", json: `[1]`, err: true},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(test.json), &d)
			if test.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, d.Duration)
		})
	}
}

func TestDurationMarshalRoundTrip(t *testing.T) {
	out, err := json.Marshal(Duration{90 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(out))
}

func TestReadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"mode": "production",
		"addr": ":9090",
		"memory_file": "mem.json",
		"postgres": {"host": "db", "port": 5432, "user": "u", "password": "p", "db_name": "minepilot"},
		"jwt": {"token_lifetime": "24h"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg := Default()
	require.NoError(t, ReadConfig(path, cfg))

	assert.True(t, cfg.Production())
	assert.False(t, cfg.Development())
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.Postgres.Enabled())
	assert.Contains(t, cfg.Postgres.DbUrl(), "host=db")
	assert.Contains(t, cfg.Postgres.MigrateUrl(), "postgres://u:p@db:5432/minepilot")
	assert.Equal(t, 24*time.Hour, cfg.Jwt.TokenLifetime.Duration)
}

func TestDefaultIsDevelopment(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.Development())
	assert.False(t, cfg.Postgres.Enabled())
}
