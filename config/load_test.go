package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Default(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.Voting.AllowChange)
	require.Equal(t, []string{"finished"}, cfg.Voting.ClosedStatuses)
	require.Equal(t, "X-Voter-Token", cfg.Identity.ClientTokenHeader)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
env = "staging"

[database]
driver = "postgres"
host = "db"
port = "5432"
database = "predictions"

[voting]
allow_change = false
multi_select = true
closed_statuses = ["finished", "cancelled"]
storage_timeout = "2s"
tally_cache_ttl = "1m"

[voting.surface_allow_change]
basic = true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("VOTING_CLOSED_STATUSES", "finished, awarded")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Env)
	require.Equal(t, "postgres", cfg.Database.Driver)
	require.False(t, cfg.Voting.AllowChange)
	require.True(t, cfg.Voting.MultiSelect)
	require.True(t, cfg.Voting.SurfaceAllowChange["basic"])
	require.Equal(t, 2*time.Second, cfg.Voting.StorageTimeout)
	require.Equal(t, time.Minute, cfg.Voting.TallyCacheTTL)
	require.Equal(t, "redis:6379", cfg.Redis.Addr)
	require.Equal(t, []string{"finished", "awarded"}, cfg.Voting.ClosedStatuses)
	require.Contains(t, cfg.Database.ConnectionString(), "dbname=predictions")
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown driver", key: "DB_DRIVER", val: "oracle"},
		{name: "misspelled closed status", key: "VOTING_CLOSED_STATUSES", val: "finshed"},
		{name: "one unknown closed status", key: "VOTING_CLOSED_STATUSES", val: "finished, over"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load("")
			require.Error(t, err)
		})
	}
}
