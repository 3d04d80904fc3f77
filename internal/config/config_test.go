package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"stolik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const validConfig = `
app:
  name: test-app
  environment: test
database:
  path: test.db
hours:
  open: "11:00"
  close: "23:00"
engine:
  lock_timeout: 3s
  cancel_retries: 5
tables:
  - number: 1
    capacity: 2
    location: indoor
  - number: 2
    capacity: 4
    location: outdoor
`

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "test-app", cfg.App.Name)
	assert.Equal(t, "test.db", cfg.Database.Path)
	assert.Len(t, cfg.Tables, 2)

	hours, err := cfg.OperatingHours()
	require.NoError(t, err)
	require.NotNil(t, hours)
	assert.Equal(t, 11*60, hours.Start)
	assert.Equal(t, 23*60, hours.End)

	timeout, err := cfg.LockTimeout()
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, timeout)
	assert.Equal(t, 5, cfg.Engine.CancelRetries)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "database:\n  path: test.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "stolik", cfg.App.Name)
	assert.Equal(t, 8080, cfg.API.HTTP.Port)
	assert.Equal(t, "x-api-key", cfg.API.Auth.HeaderAPIKey)
	assert.Equal(t, float64(20), cfg.API.RateLimit.RPS)
	assert.Equal(t, 5, cfg.API.RateLimit.Burst)
	assert.Equal(t, models.DefaultCancelRetries, cfg.Engine.CancelRetries)
	assert.Equal(t, models.DefaultSlotCacheTTL, cfg.SlotCacheTTL())

	timeout, err := cfg.LockTimeout()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultLockTimeout, timeout)

	hours, err := cfg.OperatingHours()
	require.NoError(t, err)
	assert.Nil(t, hours, "hours policy is optional")
}

func TestLoadBackupDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  path: test.db
backup:
  enabled: true
  retention_days: 7
`))
	require.NoError(t, err)
	assert.Equal(t, "backups", cfg.Backup.StoragePath)
	assert.Equal(t, 7, cfg.Backup.RetentionDays)

	cfg, err = Load(writeConfig(t, "database:\n  path: test.db\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Backup.Enabled)
	assert.Empty(t, cfg.Backup.StoragePath, "no storage path is forced while backups are off")
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "/data/env.db")
	cfg, err := Load(writeConfig(t, "database:\n  path: ${TEST_DB_PATH}\n"))
	require.NoError(t, err)
	assert.Equal(t, "/data/env.db", cfg.Database.Path)
}

func TestLoadMissingDatabasePath(t *testing.T) {
	_, err := Load(writeConfig(t, "app:\n  name: x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database path is required")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsReversedHours(t *testing.T) {
	_, err := Load(writeConfig(t, `
database:
  path: test.db
hours:
  open: "23:00"
  close: "11:00"
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operating hours")
}

func TestLoadRejectsBadLockTimeout(t *testing.T) {
	_, err := Load(writeConfig(t, `
database:
  path: test.db
engine:
  lock_timeout: soon
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock_timeout")
}

func TestValidateTables(t *testing.T) {
	tests := []struct {
		name    string
		tables  []models.Table
		wantErr string
	}{
		{
			name: "ok",
			tables: []models.Table{
				{Number: 1, Capacity: 2},
				{Number: 2, Capacity: 4},
			},
		},
		{
			name: "duplicate_number",
			tables: []models.Table{
				{Number: 1, Capacity: 2},
				{Number: 1, Capacity: 4},
			},
			wantErr: "duplicate table number",
		},
		{
			name:    "zero_capacity",
			tables:  []models.Table{{Number: 1, Capacity: 0}},
			wantErr: "invalid capacity",
		},
		{
			name:    "non_positive_number",
			tables:  []models.Table{{Number: 0, Capacity: 4}},
			wantErr: "invalid number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTables(tt.tables)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSlotCacheTTL(t *testing.T) {
	cfg := &Config{Redis: RedisConfig{CacheTTL: "90s"}}
	assert.Equal(t, 90*time.Second, cfg.SlotCacheTTL())

	cfg.Redis.CacheTTL = "nonsense"
	assert.Equal(t, models.DefaultSlotCacheTTL, cfg.SlotCacheTTL())
}
