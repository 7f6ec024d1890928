package main

import (
	"context"

	"github.com/rs/zerolog"

	"davbak/config"
	"davbak/installer"
)

func installCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.Load(args.Install.EnvFile)
	if err != nil {
		return err
	}

	logger.Info().Object("config", cfg).Msg("loaded configuration")

	return installer.New(cfg, logger).Install(ctx)
}
