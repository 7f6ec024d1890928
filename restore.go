package main

import (
	"context"

	"github.com/rs/zerolog"

	"davbak/config"
)

func restoreCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.Load(args.Restore.EnvFile)
	if err != nil {
		return err
	}

	a, err := newBackupAgent(cfg, args.Restore.Database, logger)
	if err != nil {
		return err
	}

	return a.Restore(ctx, args.Restore.Archive)
}
