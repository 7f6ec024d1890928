// Package agent runs backup and restore cycles against a remote archive
// store. Each cycle is a synchronous, stateless pass through its stages;
// a failed stage aborts the rest of the run and nothing is retried.
package agent

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"davbak/config"
	"davbak/database"
	"davbak/davstore"
)

// Remote is the archive store. davstore.Store is the production
// implementation; tests swap in a fake.
type Remote interface {
	List(ctx context.Context) ([]davstore.Entry, error)
	Upload(ctx context.Context, name string, localPath string) error
	Download(ctx context.Context, name string, localPath string) error
	Delete(ctx context.Context, name string) error
}

type Agent struct {
	cfg     config.Config
	remote  Remote
	catalog *database.Database
	logger  zerolog.Logger
	now     func() time.Time
	dryRun  bool
}

type Option func(a *Agent)

// WithCatalog records runs and archive digests in the local history.
func WithCatalog(catalog *database.Database) Option {
	return func(a *Agent) {
		a.catalog = catalog
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

func WithDryRun(dryRun bool) Option {
	return func(a *Agent) {
		a.dryRun = dryRun
	}
}

func New(cfg config.Config, remote Remote, logger zerolog.Logger, opts ...Option) *Agent {
	a := &Agent{
		cfg:    cfg,
		remote: remote,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.dryRun {
		a.logger = a.logger.With().Bool("dryrun", true).Logger()
	}
	return a
}

func (a *Agent) record(ctx context.Context, run *database.Run, start time.Time) {
	if a.catalog == nil {
		return
	}
	run.Seconds = a.now().Sub(start).Seconds()
	if err := a.catalog.RecordRun(ctx, run); err != nil {
		a.logger.Warn().Err(err).Msg("could not record run in catalog")
	}
}
