package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8002", cfg.Port)
	assert.Equal(t, "billsync_db", cfg.DBName)
	assert.Equal(t, 3, cfg.SyncApplyRetries)
	assert.Equal(t, 250, cfg.SyncRetryBackoffMs)
	assert.False(t, cfg.SyncDeleteOrphaned)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SYNC_APPLY_RETRIES", "5")
	t.Setenv("SYNC_DELETE_ORPHANED", "true")
	t.Setenv("DEVRECORDS_ORG_ID", "org-42")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 5, cfg.SyncApplyRetries)
	assert.True(t, cfg.SyncDeleteOrphaned)
	assert.Equal(t, "org-42", cfg.DevRecordsOrgID)
}

func TestBadEnvValuesFallBack(t *testing.T) {
	t.Setenv("SYNC_APPLY_RETRIES", "lots")
	t.Setenv("SYNC_DELETE_ORPHANED", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.SyncApplyRetries)
	assert.False(t, cfg.SyncDeleteOrphaned)
}
