package agent_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"davbak/agent"
	"davbak/database"
	"davbak/faults"
)

func newTestCatalog(t *testing.T) *database.Database {
	t.Helper()
	cli, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "davbak.db")), &gorm.Config{
		Logger: logger.Discard,
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	require.NoError(t, err)
	require.NoError(t, cli.AutoMigrate(&database.Run{}))
	return &database.Database{Cli: cli, Logger: zerolog.New(zerolog.NewTestWriter(t))}
}

func TestBackup_RecordsRun(t *testing.T) {
	cfg := testConfig(t)
	writeDataDir(t, cfg.DataDir, liveData)
	remote := newFakeRemote(cfg.ArchivePrefix)
	catalog := newTestCatalog(t)
	ctx := context.Background()

	a := newAgent(t, cfg, remote, agent.WithCatalog(catalog))
	require.NoError(t, a.Backup(ctx))

	runs, err := catalog.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, database.RunKindBackup, runs[0].Kind)
	assert.Equal(t, database.RunStatusDone, runs[0].Status)
	assert.NotZero(t, runs[0].SizeBytes)
	assert.NotZero(t, runs[0].Digest)
}

func TestRestore_DigestMismatch(t *testing.T) {
	cfg := testConfig(t)
	writeDataDir(t, cfg.DataDir, liveData)
	remote := newFakeRemote(cfg.ArchivePrefix)
	catalog := newTestCatalog(t)
	ctx := context.Background()

	a := newAgent(t, cfg, remote, agent.WithCatalog(catalog))
	require.NoError(t, a.Backup(ctx))

	// Tamper with the stored archive; the digest recorded at backup time
	// must catch it before anything touches the data directory.
	for name := range remote.files {
		remote.files[name] = append(remote.files[name], "tampered"...)
	}

	err := a.Restore(ctx, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, faults.ErrArchive)
	assert.Equal(t, liveData, readDataDir(t, cfg.DataDir))

	runs, err := catalog.ListRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, database.RunKindRestore, runs[0].Kind)
	assert.Equal(t, database.RunStatusFailed, runs[0].Status)
}

func TestRestore_RecordsRun(t *testing.T) {
	cfg := testConfig(t)
	writeDataDir(t, cfg.DataDir, liveData)
	remote := newFakeRemote(cfg.ArchivePrefix)
	catalog := newTestCatalog(t)
	ctx := context.Background()

	a := newAgent(t, cfg, remote, agent.WithCatalog(catalog))
	require.NoError(t, a.Backup(ctx))
	require.NoError(t, a.Restore(ctx, ""))

	runs, err := catalog.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
}
