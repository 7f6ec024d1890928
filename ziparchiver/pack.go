// Package ziparchiver turns the application data directory into timestamped
// zip archives and back. Archives are optionally password protected with
// AES-256 zip encryption.
package ziparchiver

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/yeka/zip"

	"davbak/faults"
)

// Pack writes every regular file under dataDir into a new zip archive at
// outPath, using paths relative to dataDir as entry names. When password is
// non-empty, entries are AES-256 encrypted. dataDir is only read from.
// Returns the number of stored files.
func Pack(ctx context.Context, dataDir string, outPath string, password string, logger zerolog.Logger) (int, error) {
	logger = logger.With().Str("source", dataDir).Str("archive", outPath).Logger()
	logger.Info().Msg("packing data directory")

	info, err := os.Stat(dataDir)
	if err != nil {
		return 0, faults.Wrap(faults.ErrFilesystem, err, "could not stat data directory")
	}
	if !info.IsDir() {
		return 0, faults.New(faults.ErrFilesystem, "%s is not a directory", dataDir)
	}

	out, err := os.OpenFile(outPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return 0, faults.Wrap(faults.ErrFilesystem, err, "could not create archive")
	}

	w := zip.NewWriter(out)
	stored := 0
	err = filepath.WalkDir(dataDir, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, err, "could not scan %s", path)
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, err, "could not stat %s", path)
		}
		if !fi.Mode().IsRegular() {
			logger.Debug().Str("path", path).Msg("skipping irregular file")
			return nil
		}

		rel, err := filepath.Rel(dataDir, path)
		if err != nil {
			return faults.Wrap(faults.ErrFilesystem, err, "could not relativize %s", path)
		}

		if err := storeFile(w, path, filepath.ToSlash(rel), fi, password); err != nil {
			return err
		}
		logger.Debug().Str("entry", rel).Int64("size", fi.Size()).Msg("stored file")
		stored++
		return nil
	})
	if err != nil {
		_ = w.Close()
		_ = out.Close()
		_ = os.Remove(outPath)
		return 0, err
	}

	if err := w.Close(); err != nil {
		_ = out.Close()
		return 0, faults.Wrap(faults.ErrArchive, err, "could not finalize archive")
	}
	if err := out.Close(); err != nil {
		return 0, faults.Wrap(faults.ErrFilesystem, err, "could not close archive")
	}

	if stored == 0 {
		logger.Warn().Msg("data directory had no files to pack")
	} else {
		logger.Info().Int("files", stored).Msg("packed data directory")
	}
	return stored, nil
}

func storeFile(w *zip.Writer, path string, entryName string, fi fs.FileInfo, password string) error {
	f, err := os.Open(path)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not open %s", path)
	}
	defer f.Close()

	var entry io.Writer
	if password != "" {
		entry, err = w.Encrypt(entryName, password, zip.AES256Encryption)
	} else {
		var header *zip.FileHeader
		header, err = zip.FileInfoHeader(fi)
		if err == nil {
			header.Name = entryName
			header.Method = zip.Deflate
			entry, err = w.CreateHeader(header)
		}
	}
	if err != nil {
		return faults.Wrap(faults.ErrArchive, err, "could not add entry %s", entryName)
	}

	if _, err := io.Copy(entry, f); err != nil {
		return faults.Wrap(faults.ErrArchive, err, "could not write entry %s", entryName)
	}
	return nil
}
