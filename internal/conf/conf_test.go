package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server:
  websocket:
    addr: 127.0.0.1:4000
    timeout: 5s
data:
  snapshot:
    driver: redis
    redis:
      addr: 10.0.0.1:6379
      password: secret
lifecycle:
  threshold: 10m
game:
  require_ready: true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	c, bc, err := Load(path)
	require.NoError(t, err)
	defer c.Close()

	ws := bc.Server.Websocket
	assert.Equal(t, "127.0.0.1:4000", ws.Addr)
	assert.Equal(t, 5*time.Second, ws.Timeout.Std())
	assert.Equal(t, "/", ws.Path, "unset values come from defaults")
	assert.Equal(t, "redis", bc.Data.Snapshot.Driver)
	assert.Equal(t, 10*time.Minute, bc.Lifecycle.Threshold.Std())
	assert.Equal(t, time.Minute, bc.Lifecycle.Interval.Std())
	assert.True(t, bc.Game.RequireReady)
	assert.Equal(t, 3, bc.Game.HandSize)
	assert.Equal(t, 47, bc.Game.Rules().DeckSize())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TWISTED_SERVER_WS_ADDR", "0.0.0.0:9000")
	t.Setenv("TWISTED_LIFECYCLE_INTERVAL", "15s")
	t.Setenv("TWISTED_GAME_MIN_PLAYERS", "3")
	t.Setenv("TWISTED_LOG_LEVEL", "warn")

	bc := &Bootstrap{}
	require.NoError(t, bc.complete())
	assert.Equal(t, "0.0.0.0:9000", bc.Server.Websocket.Addr)
	assert.Equal(t, 15*time.Second, bc.Lifecycle.Interval.Std())
	assert.Equal(t, 3, bc.Game.MinPlayers)
	assert.Equal(t, "warn", bc.Log.Level)
}

func TestValidate(t *testing.T) {
	bc := DefaultConfig()
	require.NoError(t, bc.Validate())

	bc.Data.Snapshot.Driver = "sqlite"
	assert.Error(t, bc.Validate(), "sqlite needs a dsn")
	bc.Data.Snapshot.DSN = "data/twisted.db"
	assert.NoError(t, bc.Validate())

	bc.Data.Snapshot.Driver = "mongo"
	bc.Server.Websocket.Path = "ws"
	assert.Error(t, bc.Validate())
}

func TestDuration(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalJSON([]byte(`"1m30s"`)))
	assert.Equal(t, 90*time.Second, d.Std())
	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.Std())
	assert.Error(t, d.UnmarshalText([]byte("soon")))

	out, err := Duration(2 * time.Second).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"2s"`, string(out))
}

func TestDumpMasksSecrets(t *testing.T) {
	bc := DefaultConfig()
	bc.Data.Snapshot.Redis.Password = "hunter2"
	bc.Data.Snapshot.DSN = "postgres://u:p@db/twisted"

	out := bc.Dump()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "u:p@db")
	assert.Contains(t, out, "threshold: 30m0s")
	assert.Equal(t, "hunter2", bc.Data.Snapshot.Redis.Password, "dump leaves the original alone")
}
