package main

import (
	"context"

	"github.com/rs/zerolog"

	"davbak/agent"
	"davbak/config"
	"davbak/davstore"
)

func backupCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.Load(args.Backup.EnvFile)
	if err != nil {
		return err
	}

	a, err := newBackupAgent(cfg, args.Backup.Database, logger, agent.WithDryRun(args.Backup.DryRun))
	if err != nil {
		return err
	}

	return a.Backup(ctx)
}

// newBackupAgent wires the WebDAV store and the optional run catalog into
// an agent. The agent itself rejects missing WebDAV credentials before any
// network call.
func newBackupAgent(cfg config.Config, databasePath string, logger zerolog.Logger, opts ...agent.Option) (*agent.Agent, error) {
	catalog, err := openCatalog(databasePath, logger)
	if err != nil {
		return nil, err
	}
	if catalog != nil {
		opts = append(opts, agent.WithCatalog(catalog))
	}

	store := davstore.New(cfg.WebDAV, cfg.ArchivePrefix, logger)
	return agent.New(cfg, store, logger, opts...), nil
}
