package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RELAY_ADDR", "")
	t.Setenv("RECONNECT_BACKOFF", "")
	t.Setenv("DB_DRIVER", "")

	cfg := Load()
	assert.Equal(t, ":8787", cfg.Relay.Addr)
	assert.Equal(t, 2*time.Second, cfg.Peer.ReconnectBackoff)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 10, cfg.Peer.DefaultDeckSize)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("RELAY_ADDR", ":9000")
	t.Setenv("RECONNECT_BACKOFF", "500ms")
	t.Setenv("PEER_BUFFER", "8")
	t.Setenv("DEFAULT_DECK_SIZE", "not-a-number")
	t.Setenv("LOG_FORMAT", "json")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.Relay.Addr)
	assert.Equal(t, 500*time.Millisecond, cfg.Peer.ReconnectBackoff)
	assert.Equal(t, 8, cfg.Relay.PeerBuffer)
	assert.Equal(t, 10, cfg.Peer.DefaultDeckSize)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestParsePeerFlags(t *testing.T) {
	cfg := &Config{
		Peer: PeerConfig{RelayURL: "ws://relay/ws"},
		DB:   DBConfig{DSN: "peer.db"},
	}

	t.Setenv("GROUP_ID", "")
	_, err := ParsePeerFlags(nil, cfg)
	assert.ErrorIs(t, err, ErrGroupRequired)

	f, err := ParsePeerFlags([]string{"-group", "123456", "-name", "Ann", "-anonymous"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "123456", f.GroupID)
	assert.Equal(t, "Ann", f.Name)
	assert.True(t, f.Anonymous)
	assert.Equal(t, "ws://relay/ws", f.RelayURL)
	assert.Equal(t, "peer.db", f.DBDSN)

	t.Setenv("GROUP_ID", "from-env")
	f, err = ParsePeerFlags([]string{"-relay", "ws://other/ws"}, cfg)
	require.NoError(t, err)
	assert.Equal(t, "from-env", f.GroupID)
	assert.Equal(t, "ws://other/ws", f.RelayURL)
}
