package main

import (
	"context"

	"github.com/docker/go-units"
	"github.com/rs/zerolog"
)

func historyCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	catalog, err := openCatalog(args.History.Database, logger)
	if err != nil {
		return err
	}

	runs, err := catalog.ListRuns(ctx, args.History.Limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		logger.Info().Msg("no recorded runs")
		return nil
	}

	for _, run := range runs {
		event := logger.Info().
			Str("kind", run.Kind).
			Str("archive", run.Archive).
			Time("started", run.StartedAt).
			Float64("seconds", run.Seconds).
			Str("status", run.Status)
		if run.SizeBytes > 0 {
			event = event.Str("size", units.HumanSize(float64(run.SizeBytes)))
		}
		if run.Error != "" {
			event = event.Str("error", run.Error)
		}
		event.Msg("run")
	}

	return nil
}
