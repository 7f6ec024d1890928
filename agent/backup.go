package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"

	"davbak/database"
	"davbak/faults"
	"davbak/fileutils"
	"davbak/ziparchiver"
)

// Backup runs one cycle: snapshot the data directory into a timestamped
// archive, upload it, then prune remote archives older than the retention
// window. The data directory is only ever read. With dry run enabled the
// archive is built in the temp directory but nothing leaves the machine.
func (a *Agent) Backup(ctx context.Context) error {
	if !a.cfg.WebDAV.Enabled() {
		return faults.New(faults.ErrConfiguration, "WEBDAV_URL, WEBDAV_USER and WEBDAV_PASS are required for backup")
	}

	start := a.now()
	logger := a.logger.With().Str("data_dir", a.cfg.DataDir).Logger()
	logger.Info().Msg("starting backup")
	defer func() {
		tookSeconds := time.Since(start).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("backup finished")
		}
	}()

	// Unique per invocation so leftovers from killed runs never collide.
	tmpDir, err := os.MkdirTemp("", "davbak-backup-*")
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	name := ziparchiver.ArchiveName(a.cfg.ArchivePrefix, a.now())
	archivePath := filepath.Join(tmpDir, name)

	run := &database.Run{
		Kind:      database.RunKindBackup,
		Archive:   name,
		StartedAt: start,
		Status:    database.RunStatusFailed,
	}

	stage := logger.With().Str("stage", "snapshot").Logger()
	if _, err := ziparchiver.Pack(ctx, a.cfg.DataDir, archivePath, a.cfg.ArchivePass, stage); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("snapshot: %w", err)
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return faults.Wrap(faults.ErrFilesystem, err, "could not stat archive")
	}
	digest, err := fileutils.FileDigest(archivePath)
	if err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return faults.Wrap(faults.ErrFilesystem, err, "could not digest archive")
	}
	run.SizeBytes = info.Size()
	run.Digest = int64(digest)

	stage.Info().
		Str("archive", name).
		Str("size", units.HumanSize(float64(info.Size()))).
		Msg("snapshot ready")

	if a.dryRun {
		logger.Info().Str("archive", name).Msg("dry run: skipping upload and pruning")
		return nil
	}

	stage = logger.With().Str("stage", "transferring").Logger()
	if err := a.remote.Upload(ctx, name, archivePath); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("upload: %w", err)
	}
	stage.Info().Str("archive", name).Msg("uploaded archive")

	stage = logger.With().Str("stage", "pruning").Logger()
	if err := a.prune(ctx, stage); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("pruning: %w", err)
	}

	run.Status = database.RunStatusDone
	a.record(ctx, run, start)
	return nil
}

// prune deletes remote archives whose embedded timestamp is older than
// now minus the retention window.
func (a *Agent) prune(ctx context.Context, logger zerolog.Logger) error {
	entries, err := a.remote.List(ctx)
	if err != nil {
		return err
	}

	cutoff := a.now().UTC().Add(-time.Duration(a.cfg.KeepDays) * 24 * time.Hour)
	deleted := 0
	for _, entry := range entries {
		if !entry.Time.Before(cutoff) {
			continue
		}
		if err := a.remote.Delete(ctx, entry.Name); err != nil {
			return err
		}
		logger.Info().Str("archive", entry.Name).Time("created", entry.Time).Msg("deleted expired archive")
		deleted++
	}

	if deleted == 0 {
		logger.Debug().Time("cutoff", cutoff).Msg("no expired archives")
	} else {
		logger.Info().Int("deleted", deleted).Time("cutoff", cutoff).Msg("pruned expired archives")
	}
	return nil
}
