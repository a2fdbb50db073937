package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "./data/smsledger.db", cfg.DBPath)
	assert.Equal(t, filepath.Join("data", "backups"), cfg.BackupDir)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
	assert.Equal(t, "Asia/Kolkata", cfg.Location.String())
	assert.Empty(t, cfg.Password)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "smsledger.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_path: /var/lib/smsledger/ledger.db
port: "9090"
timezone: UTC
sweep_interval: 5m
session_ttl: 12h
trusted_senders: [MYBANK]
merchants:
  CHAAYOS: Food
`), 0o644))

	cfg, err := load(envFrom(map[string]string{
		"SMSLEDGER_CONFIG":   path,
		"PORT":               "7070",
		"SMSLEDGER_PASSWORD": "hunter2",
	}))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/smsledger/ledger.db", cfg.DBPath)
	assert.Equal(t, "/var/lib/smsledger/backups", cfg.BackupDir)
	assert.Equal(t, "7070", cfg.Port)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Equal(t, []string{"MYBANK"}, cfg.TrustedSenders)
	assert.Equal(t, map[string]string{"CHAAYOS": "Food"}, cfg.Merchants)
	// untouched keys keep defaults
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"SMSLEDGER_SWEEP_INTERVAL": "soon"}},
		{"zero interval", map[string]string{"SMSLEDGER_SWEEP_INTERVAL": "0s"}},
		{"unknown timezone", map[string]string{"SMSLEDGER_TIMEZONE": "Mars/Olympus"}},
		{"missing file", map[string]string{"SMSLEDGER_CONFIG": "/nonexistent/smsledger.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(envFrom(tt.env))
			assert.Error(t, err)
		})
	}
}
