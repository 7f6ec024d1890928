package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// RecordRun appends a run to the history.
func (d *Database) RecordRun(ctx context.Context, run *Run) error {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	d.Logger.Debug().Str("kind", run.Kind).Str("archive", run.Archive).Str("status", run.Status).Msg("recording run")
	return d.Cli.WithContext(ctx).Create(run).Error
}

// ArchiveDigest looks up the digest recorded by the most recent successful
// backup of the named archive. The second return is false when the archive
// was never recorded.
func (d *Database) ArchiveDigest(ctx context.Context, archive string) (uint64, bool, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	run := Run{}
	err := d.Cli.WithContext(ctx).
		Where(&Run{Kind: RunKindBackup, Archive: archive, Status: RunStatusDone}).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return uint64(run.Digest), true, nil
}

// ListRuns returns the most recent runs, newest first.
func (d *Database) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	d.Lock.Lock()
	defer d.Lock.Unlock()

	runs := []Run{}
	q := d.Cli.WithContext(ctx).Order("started_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&runs).Error
	return runs, err
}
