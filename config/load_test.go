package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"davbak/config"
	"davbak/faults"
)

var goodEnvFile = `
PORT=8080
TZ=Europe/Madrid
DOWNLOAD_URL=https://example.com/app.zip
WEBDAV_URL=https://dav.example.com/backups
WEBDAV_USER=backup
WEBDAV_PASS=secret
BACKUP_PASS=hunter2
BACKUP_HOUR=2
KEEP_DAYS=14
`

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "davbak.env")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Port)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Equal(t, "davbak", cfg.ArchivePrefix)
	assert.Equal(t, 4, cfg.BackupHour)
	assert.Equal(t, 7, cfg.KeepDays)
	assert.False(t, cfg.WebDAV.Enabled())
	assert.False(t, cfg.Agent.Enabled())
}

func TestLoad_EnvFile(t *testing.T) {
	cfg, err := config.Load(writeEnvFile(t, goodEnvFile))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "Europe/Madrid", cfg.Timezone)
	assert.Equal(t, "https://example.com/app.zip", cfg.DownloadURL)
	assert.True(t, cfg.WebDAV.Enabled())
	assert.Equal(t, "backup", cfg.WebDAV.User)
	assert.Equal(t, "hunter2", cfg.ArchivePass)
	assert.Equal(t, 2, cfg.BackupHour)
	assert.Equal(t, 14, cfg.KeepDays)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("KEEP_DAYS", "30")

	cfg, err := config.Load(writeEnvFile(t, goodEnvFile))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.KeepDays)
}

func TestLoad_PartialWebDAV(t *testing.T) {
	_, err := config.Load(writeEnvFile(t, "WEBDAV_URL=https://dav.example.com\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
}

func TestLoad_PartialAgent(t *testing.T) {
	_, err := config.Load(writeEnvFile(t, "AGENT_SERVER=agent.example.com:443\nAGENT_UUID=abc\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
}

func TestLoad_BadValues(t *testing.T) {
	for name, content := range map[string]string{
		"hour too large": "BACKUP_HOUR=24\n",
		"hour negative":  "BACKUP_HOUR=-1\n",
		"hour not int":   "BACKUP_HOUR=nope\n",
		"keep zero":      "KEEP_DAYS=0\n",
		"keep not int":   "KEEP_DAYS=week\n",
		"port zero":      "PORT=0\n",
		"bad agent tls":  "AGENT_TLS=maybe\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := config.Load(writeEnvFile(t, content))
			require.Error(t, err)
			assert.ErrorIs(t, err, faults.ErrConfiguration)
		})
	}
}

func TestLoad_NoFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrConfiguration)
}
