package database_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"davbak/database"
)

func newTestDatabase(t *testing.T) *database.Database {
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

func TestRecordAndListRuns(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC)
	for i, status := range []string{database.RunStatusDone, database.RunStatusFailed, database.RunStatusDone} {
		require.NoError(t, db.RecordRun(ctx, &database.Run{
			Kind:      database.RunKindBackup,
			Archive:   "davbak-2024-05-01-04-00-00.zip",
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Status:    status,
		}))
	}

	runs, err := db.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	// Newest first.
	assert.Equal(t, base.Add(2*time.Hour), runs[0].StartedAt.UTC())

	runs, err = db.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestArchiveDigest(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	const archive = "davbak-2024-05-01-04-00-00.zip"
	require.NoError(t, db.RecordRun(ctx, &database.Run{
		Kind:      database.RunKindBackup,
		Archive:   archive,
		Digest:    int64(12345),
		StartedAt: time.Date(2024, 5, 1, 4, 0, 0, 0, time.UTC),
		Status:    database.RunStatusDone,
	}))
	// A later failed run must not shadow the recorded digest.
	require.NoError(t, db.RecordRun(ctx, &database.Run{
		Kind:      database.RunKindBackup,
		Archive:   archive,
		Digest:    int64(999),
		StartedAt: time.Date(2024, 5, 2, 4, 0, 0, 0, time.UTC),
		Status:    database.RunStatusFailed,
	}))

	digest, ok, err := db.ArchiveDigest(ctx, archive)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint64(12345), digest)

	_, ok, err = db.ArchiveDigest(ctx, "davbak-2030-01-01-00-00-00.zip")
	require.NoError(t, err)
	assert.False(t, ok)
}
