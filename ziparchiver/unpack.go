package ziparchiver

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yeka/zip"

	"davbak/faults"
)

// Unpack extracts an archive produced by Pack into destDir. Every entry is
// validated before anything is written: the archive must be readable, must
// not be empty, entry paths must stay inside destDir, and encrypted entries
// need the password. Wrong passwords and corrupt data surface as archive
// errors during extraction.
// Returns the number of extracted files.
func Unpack(ctx context.Context, archivePath string, destDir string, password string, logger zerolog.Logger) (int, error) {
	logger = logger.With().Str("archive", archivePath).Str("dest", destDir).Logger()
	logger.Info().Msg("unpacking archive")

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, faults.Wrap(faults.ErrArchive, err, "could not open archive")
	}
	defer r.Close()

	if len(r.File) == 0 {
		return 0, faults.New(faults.ErrArchive, "archive %s is empty", filepath.Base(archivePath))
	}

	for _, f := range r.File {
		if !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return 0, faults.New(faults.ErrArchive, "entry %q escapes the destination directory", f.Name)
		}
		if f.IsEncrypted() && password == "" {
			return 0, faults.New(faults.ErrArchive, "archive is password protected and no password is configured")
		}
	}

	extracted := 0
	for _, f := range r.File {
		if ctx.Err() != nil {
			return extracted, ctx.Err()
		}

		target := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(target, 0755); err != nil {
				return extracted, faults.Wrap(faults.ErrFilesystem, err, "could not create directory %s", target)
			}
			continue
		}

		if err := extractFile(f, target, password); err != nil {
			return extracted, err
		}
		logger.Debug().Str("entry", f.Name).Msg("extracted file")
		extracted++
	}

	logger.Info().Int("files", extracted).Msg("unpacked archive")
	return extracted, nil
}

func extractFile(f *zip.File, target string, password string) error {
	if f.IsEncrypted() {
		f.SetPassword(password)
	}

	rc, err := f.Open()
	if err != nil {
		return faults.Wrap(faults.ErrArchive, err, "could not open entry %s", f.Name)
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create directory for %s", f.Name)
	}

	w, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create %s", target)
	}

	_, err = io.Copy(w, rc)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		// A wrong password on AES entries shows up here as a read error.
		_ = os.Remove(target)
		return faults.Wrap(faults.ErrArchive, err, "could not extract entry %s", f.Name)
	}

	if mod := f.ModTime(); !mod.IsZero() {
		_ = os.Chtimes(target, mod, mod)
	}
	return nil
}
