// Package davstore stores archives in a WebDAV collection. Listings come
// back as structured (name, timestamp) records parsed from the archive
// naming convention; anything else in the collection is ignored.
package davstore

import (
	"context"
	"io"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/studio-b12/gowebdav"

	"davbak/config"
	"davbak/faults"
	"davbak/ziparchiver"
)

// Entry is one archive found in the collection. Time is parsed from the
// archive name, not from server metadata.
type Entry struct {
	Name string
	Time time.Time
	Size int64
}

type Store struct {
	cli    *gowebdav.Client
	prefix string
	logger zerolog.Logger
}

// New builds a store over the configured collection. The gowebdav client
// handles PROPFIND Depth:1 listings and basic auth; transfers block until
// done or until the client timeout fires.
func New(dav config.WebDAV, archivePrefix string, logger zerolog.Logger) *Store {
	cli := gowebdav.NewClient(dav.URL, dav.User, dav.Pass)
	cli.SetTimeout(10 * time.Minute)
	// gowebdav only sends credentials after a WWW-Authenticate challenge;
	// attach basic auth to every request so servers that reply 401 without
	// a challenge header still accept us.
	cli.SetInterceptor(func(_ string, rq *http.Request) {
		rq.SetBasicAuth(dav.User, dav.Pass)
	})
	return &Store{
		cli:    cli,
		prefix: archivePrefix,
		logger: logger.With().Str("collection", dav.URL).Logger(),
	}
}

// List returns the archives in the collection, oldest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := s.cli.ReadDir("/")
	if err != nil {
		return nil, faults.Wrap(faults.ErrTransfer, err, "could not list collection")
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		stamp, ok := ziparchiver.ParseArchiveName(s.prefix, info.Name())
		if !ok {
			s.logger.Debug().Str("name", info.Name()).Msg("ignoring non-archive entry")
			continue
		}
		entries = append(entries, Entry{Name: info.Name(), Time: stamp, Size: info.Size()})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})

	s.logger.Debug().Int("archives", len(entries)).Msg("listed collection")
	return entries, nil
}

// Upload streams the local file into the collection under name.
func (s *Store) Upload(ctx context.Context, name string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := os.Open(localPath)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not open %s", localPath)
	}
	defer f.Close()

	if err := s.cli.WriteStream("/"+name, f, 0644); err != nil {
		return faults.Wrap(faults.ErrTransfer, err, "could not upload %s", name)
	}

	s.logger.Debug().Str("name", name).Msg("uploaded archive")
	return nil
}

// Download streams the named archive into localPath.
func (s *Store) Download(ctx context.Context, name string, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r, err := s.cli.ReadStream("/" + name)
	if err != nil {
		return faults.Wrap(faults.ErrTransfer, err, "could not download %s", name)
	}
	defer r.Close()

	w, err := os.OpenFile(localPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create %s", localPath)
	}

	_, err = io.Copy(w, r)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return faults.Wrap(faults.ErrTransfer, err, "could not download %s", name)
	}

	s.logger.Debug().Str("name", name).Msg("downloaded archive")
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.cli.Remove("/" + name); err != nil {
		return faults.Wrap(faults.ErrTransfer, err, "could not delete %s", name)
	}

	s.logger.Debug().Str("name", name).Msg("deleted archive")
	return nil
}
