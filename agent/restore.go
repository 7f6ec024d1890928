package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"davbak/database"
	"davbak/faults"
	"davbak/fileutils"
	"davbak/ziparchiver"
)

// Restore downloads an archive and replaces the data directory with its
// contents. With an empty name the most recent archive in the collection is
// chosen; zero matching archives is a successful no-op. The data directory
// is only touched after the downloaded archive has unpacked and validated
// cleanly in a temp location.
func (a *Agent) Restore(ctx context.Context, name string) error {
	if !a.cfg.WebDAV.Enabled() {
		return faults.New(faults.ErrConfiguration, "WEBDAV_URL, WEBDAV_USER and WEBDAV_PASS are required for restore")
	}

	start := a.now()
	logger := a.logger.With().Str("data_dir", a.cfg.DataDir).Logger()
	logger.Info().Msg("starting restore")
	defer func() {
		tookSeconds := time.Since(start).Seconds()
		if ctx.Err() != nil {
			logger.Info().Float64("seconds", tookSeconds).Msg("restore cancelled")
		} else {
			logger.Info().Float64("seconds", tookSeconds).Msg("restore finished")
		}
	}()

	if name == "" {
		stage := logger.With().Str("stage", "fetching-listing").Logger()
		entries, err := a.remote.List(ctx)
		if err != nil {
			return fmt.Errorf("listing: %w", err)
		}
		if len(entries) == 0 {
			stage.Info().Msg("no archives in the collection, nothing to restore")
			return nil
		}
		// List returns entries oldest first, by parsed timestamp.
		name = entries[len(entries)-1].Name
		stage.Info().Str("archive", name).Msg("selected most recent archive")
	}

	tmpDir, err := os.MkdirTemp("", "davbak-restore-*")
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create temp directory")
	}
	defer os.RemoveAll(tmpDir)

	run := &database.Run{
		Kind:      database.RunKindRestore,
		Archive:   name,
		StartedAt: start,
		Status:    database.RunStatusFailed,
	}

	stage := logger.With().Str("stage", "transferring").Logger()
	archivePath := filepath.Join(tmpDir, name)
	if err := a.remote.Download(ctx, name, archivePath); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("download: %w", err)
	}
	stage.Info().Str("archive", name).Msg("downloaded archive")

	stage = logger.With().Str("stage", "validating").Logger()
	if err := a.verifyDigest(ctx, name, archivePath); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("validation: %w", err)
	}
	if info, err := os.Stat(archivePath); err == nil {
		run.SizeBytes = info.Size()
	}

	unpackDir := filepath.Join(tmpDir, "data")
	if err := os.MkdirAll(unpackDir, 0755); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return faults.Wrap(faults.ErrFilesystem, err, "could not create unpack directory")
	}
	if _, err := ziparchiver.Unpack(ctx, archivePath, unpackDir, a.cfg.ArchivePass, stage); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("validation: %w", err)
	}

	// Everything checked out, now overwrite the live data directory.
	if err := a.swapDataDir(unpackDir); err != nil {
		run.Error = err.Error()
		a.record(ctx, run, start)
		return fmt.Errorf("overwrite: %w", err)
	}
	logger.Info().Str("archive", name).Msg("restored data directory")

	run.Status = database.RunStatusDone
	a.record(ctx, run, start)
	return nil
}

// verifyDigest compares the downloaded archive against the digest recorded
// at backup time, when the catalog has one.
func (a *Agent) verifyDigest(ctx context.Context, name string, archivePath string) error {
	if a.catalog == nil {
		return nil
	}
	want, ok, err := a.catalog.ArchiveDigest(ctx, name)
	if err != nil {
		a.logger.Warn().Err(err).Msg("could not read archive digest from catalog")
		return nil
	}
	if !ok {
		return nil
	}
	got, err := fileutils.FileDigest(archivePath)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not digest downloaded archive")
	}
	if got != want {
		return faults.New(faults.ErrArchive, "archive %s does not match the recorded digest", name)
	}
	return nil
}

// swapDataDir replaces the live data directory with the unpacked contents.
// The current contents are moved aside inside the same parent first, so a
// failed copy rolls back to them instead of leaving the directory half empty.
func (a *Agent) swapDataDir(unpackDir string) error {
	oldDir := a.cfg.DataDir + ".old"
	if err := os.RemoveAll(oldDir); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not remove stale directory %s", oldDir)
	}
	if fileutils.Exists(a.cfg.DataDir) {
		if err := fileutils.VerifyWritable(a.cfg.DataDir); err != nil {
			return faults.Wrap(faults.ErrFilesystem, err, "data directory is not writable")
		}
		if err := os.Rename(a.cfg.DataDir, oldDir); err != nil {
			return faults.Wrap(faults.ErrFilesystem, err, "could not move data directory aside")
		}
	}

	if err := os.MkdirAll(a.cfg.DataDir, 0755); err != nil {
		a.rollbackDataDir(oldDir)
		return faults.Wrap(faults.ErrFilesystem, err, "could not create data directory")
	}
	if err := fileutils.CopyDir(unpackDir, a.cfg.DataDir); err != nil {
		a.rollbackDataDir(oldDir)
		return faults.Wrap(faults.ErrFilesystem, err, "could not copy restored data")
	}

	if err := os.RemoveAll(oldDir); err != nil {
		a.logger.Warn().Err(err).Str("dir", oldDir).Msg("could not remove moved-aside data directory")
	}
	return nil
}

// rollbackDataDir puts the moved-aside contents back after a failed swap.
func (a *Agent) rollbackDataDir(oldDir string) {
	if !fileutils.Exists(oldDir) {
		return
	}
	if err := os.RemoveAll(a.cfg.DataDir); err != nil {
		a.logger.Error().Err(err).Msg("could not discard partial data directory during rollback")
		return
	}
	if err := os.Rename(oldDir, a.cfg.DataDir); err != nil {
		a.logger.Error().Err(err).Str("dir", oldDir).Msg("could not move data directory back")
	}
}
