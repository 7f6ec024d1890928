package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"davbak/agent"
	"davbak/config"
	"davbak/fileutils"
	"davbak/scheduler"
)

func daemonCommand(ctx context.Context, args Command, logger zerolog.Logger) error {
	cfg, err := config.Load(args.Daemon.EnvFile)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(scheduler.SchedulerParams{
		Logger: logger,
	})

	if err := addBackupJob(ctx, sched, cfg, args.Daemon.Database, logger); err != nil {
		return err
	}

	if args.Daemon.EnvFile != "" {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		startEnvFileWatcher(ctx, args.Daemon.EnvFile, logger, ticker, func(cfg config.Config) {
			sched.RemoveJobs()
			if err := addBackupJob(ctx, sched, cfg, args.Daemon.Database, logger); err != nil {
				logger.Error().Err(err).Msg("could not re-add backup job")
			}
		})
	}

	sched.Start()
	defer sched.Stop()

	logger.Info().Int("backup_hour", cfg.BackupHour).Msg("daemon running")
	<-ctx.Done()

	return nil
}

func addBackupJob(ctx context.Context, sched *scheduler.Scheduler, cfg config.Config, databasePath string, logger zerolog.Logger) error {
	a, err := newBackupAgent(cfg, databasePath, logger)
	if err != nil {
		return err
	}

	if err := sched.AddJob(scheduler.DailyAt(cfg.BackupHour), &backupJob{
		ctx:    ctx,
		agent:  a,
		logger: logger,
	}); err != nil {
		return err
	}

	logger.Info().Object("config", cfg).Msg("scheduled daily backup")
	return nil
}

func startEnvFileWatcher(ctx context.Context, envFile string, logger zerolog.Logger, ticker *time.Ticker, onChanged func(cfg config.Config)) {
	logger.Info().Str("path", envFile).Msg("watching env file for changes")
	watcher, err := fileutils.WatchFile(ctx, envFile, when(ticker.C), func(err error) {
		logger.Error().Err(err).Msg("could not watch env file")
	})
	if err != nil {
		logger.Error().Err(err).Msg("could not watch env file")
		return
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-watcher:
				logger.Info().Str("path", envFile).Msg("env file changed, reloading")

				cfg, err := config.Load(envFile)
				if err != nil {
					logger.Error().Err(err).Msg("could not load config")
					break
				}

				onChanged(cfg)
			}
		}
	}()
}

func when[T any](ch <-chan T) <-chan struct{} {
	out := make(chan struct{})
	go func() {
		defer close(out)
		for range ch {
			out <- struct{}{}
		}
	}()
	return out
}

type backupJob struct {
	ctx    context.Context
	agent  *agent.Agent
	logger zerolog.Logger
}

func (b *backupJob) Run() {
	if err := b.agent.Backup(b.ctx); err != nil {
		b.logger.Error().Err(err).Msg("scheduled backup failed")
	}
}
