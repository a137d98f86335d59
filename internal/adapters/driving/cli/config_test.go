package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/outlookcal/internal/adapters/driven/config/file"
)

func TestConfigSetCmd_WritesFile(t *testing.T) {
	setup(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")

	_, stderr, err := execute(t, "--config", cfg, "config", "set", "client_id", "abc-123")
	require.NoError(t, err)
	assert.Contains(t, stderr, "outlook_calendar.client_id saved")

	_, _, err = execute(t, "--config", cfg, "config", "set", "outlook_calendar.scopes", "Contacts.Read User.Read")
	require.NoError(t, err)
	_, _, err = execute(t, "--config", cfg, "config", "set", "timeout_seconds", "9")
	require.NoError(t, err)

	data, err := os.ReadFile(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[outlook_calendar]")

	info, err := os.Stat(cfg)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	store, err := file.OpenConfigFile(cfg)
	require.NoError(t, err)
	s := file.LoadSettings(store, func(string) string { return "" })
	assert.Equal(t, "abc-123", s.ClientID)
	assert.Equal(t, []string{"Contacts.Read", "User.Read"}, s.Scopes)
	assert.Equal(t, 9, int(s.Timeout.Seconds()))
}

func TestConfigSetCmd_UsedByLoginURL(t *testing.T) {
	setup(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")

	_, _, err := execute(t, "--config", cfg, "login-url")
	require.ErrorIs(t, err, file.ErrMissingClientID)

	_, _, err = execute(t, "--config", cfg, "config", "set", "client_id", "from-config-set")
	require.NoError(t, err)

	stdout, _, err := execute(t, "--config", cfg, "login-url")
	require.NoError(t, err)
	assert.Contains(t, stdout, "client_id=from-config-set")
}

func TestConfigSetCmd_Rejects(t *testing.T) {
	setup(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")

	_, _, err := execute(t, "--config", cfg, "config", "set", "colour", "blue")
	assert.ErrorIs(t, err, file.ErrUnknownKey)

	_, _, err = execute(t, "--config", cfg, "config", "set", "burst", "lots")
	assert.Error(t, err)

	_, statErr := os.Stat(cfg)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConfigGetCmd(t *testing.T) {
	setup(t)
	cfg := writeTestConfig(t, "http://127.0.0.1:1", "scopes = [\"Contacts.Read\", \"User.Read\"]\n")

	tests := []struct {
		key      string
		expected string
	}{
		{key: "client_id", expected: "test-client"},
		{key: "client_secret", expected: "(set)"},
		{key: "scopes", expected: "Contacts.Read User.Read"},
		{key: "tenant", expected: "(unset)"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			stdout, _, err := execute(t, "--config", cfg, "config", "get", tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strings.TrimSpace(stdout))
		})
	}

	_, _, err := execute(t, "--config", cfg, "config", "get", "nope")
	assert.ErrorIs(t, err, file.ErrUnknownKey)
}

func TestConfigListCmd_HidesSecret(t *testing.T) {
	setup(t)
	cfg := writeTestConfig(t, "http://127.0.0.1:1", "")

	stdout, _, err := execute(t, "--config", cfg, "config", "list")
	require.NoError(t, err)

	assert.Contains(t, stdout, "outlook_calendar.client_id = test-client\n")
	assert.Contains(t, stdout, "outlook_calendar.client_secret = (set)\n")
	assert.Contains(t, stdout, "outlook_calendar.burst = (unset)\n")
	assert.NotContains(t, stdout, "test-secret")
}

func TestConfigPathCmd(t *testing.T) {
	setup(t)
	cfg := filepath.Join(t.TempDir(), "config.toml")

	stdout, _, err := execute(t, "--config", cfg, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, cfg, strings.TrimSpace(stdout))
}
