// Package installer downloads the application bundle, unpacks it, writes
// the runtime settings and starts the application (plus the optional
// monitoring agent). Failures are reported, never retried.
package installer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"davbak/config"
	"davbak/faults"
	"davbak/ziparchiver"
)

type Installer struct {
	cfg    config.Config
	http   *http.Client
	start  func(cmd *exec.Cmd) error
	logger zerolog.Logger
}

type Option func(i *Installer)

func WithHTTPClient(cli *http.Client) Option {
	return func(i *Installer) {
		i.http = cli
	}
}

// WithStartFunc replaces how processes are launched. Tests use this to
// capture commands instead of spawning them.
func WithStartFunc(start func(cmd *exec.Cmd) error) Option {
	return func(i *Installer) {
		i.start = start
	}
}

func New(cfg config.Config, logger zerolog.Logger, opts ...Option) *Installer {
	i := &Installer{
		cfg:    cfg,
		http:   &http.Client{Timeout: 10 * time.Minute},
		start:  startDetached,
		logger: logger,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Install fetches the bundle at DOWNLOAD_URL, unpacks it into APP_DIR,
// writes the runtime env file and starts the application process.
func (i *Installer) Install(ctx context.Context) error {
	if i.cfg.DownloadURL == "" {
		return faults.New(faults.ErrConfiguration, "DOWNLOAD_URL is required for install")
	}

	startTime := time.Now()
	logger := i.logger.With().Str("app_dir", i.cfg.AppDir).Logger()
	logger.Info().Str("url", i.cfg.DownloadURL).Msg("starting install")
	defer func() {
		logger.Info().Float64("seconds", time.Since(startTime).Seconds()).Msg("install finished")
	}()

	bundlePath, cleanup, err := i.fetchBundle(ctx, logger)
	if err != nil {
		return fmt.Errorf("download: %w", err)
	}
	defer cleanup()

	if err := os.MkdirAll(i.cfg.AppDir, 0755); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not create app directory")
	}
	if _, err := ziparchiver.Unpack(ctx, bundlePath, i.cfg.AppDir, "", logger); err != nil {
		return fmt.Errorf("unpack: %w", err)
	}

	if err := i.writeRuntimeEnv(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}

	if err := i.startApp(logger); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	if i.cfg.Agent.Enabled() {
		if err := i.startAgent(logger); err != nil {
			return fmt.Errorf("agent: %w", err)
		}
	}

	return nil
}

func (i *Installer) fetchBundle(ctx context.Context, logger zerolog.Logger) (string, func(), error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.cfg.DownloadURL, nil)
	if err != nil {
		return "", nil, faults.Wrap(faults.ErrConfiguration, err, "invalid DOWNLOAD_URL")
	}

	resp, err := i.http.Do(req)
	if err != nil {
		return "", nil, faults.Wrap(faults.ErrTransfer, err, "could not fetch bundle")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", nil, faults.New(faults.ErrTransfer, "bundle download returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "davbak-bundle-*.zip")
	if err != nil {
		return "", nil, faults.Wrap(faults.ErrFilesystem, err, "could not create temp file")
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	written, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		cleanup()
		return "", nil, faults.Wrap(faults.ErrTransfer, err, "could not download bundle")
	}
	if written == 0 {
		cleanup()
		return "", nil, faults.New(faults.ErrTransfer, "bundle download was empty")
	}

	logger.Info().Int64("bytes", written).Msg("downloaded bundle")
	return tmp.Name(), cleanup, nil
}

// writeRuntimeEnv drops the flat KEY=value settings file the application
// reads on startup.
func (i *Installer) writeRuntimeEnv() error {
	content := fmt.Sprintf("PORT=%d\nTZ=%s\nDATA_DIR=%s\n", i.cfg.Port, i.cfg.Timezone, i.cfg.DataDir)
	path := filepath.Join(i.cfg.AppDir, ".env")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not write %s", path)
	}
	return nil
}

func (i *Installer) startApp(logger zerolog.Logger) error {
	cmd := i.command(i.cfg.AppCommand)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("PORT=%d", i.cfg.Port),
		fmt.Sprintf("TZ=%s", i.cfg.Timezone),
		fmt.Sprintf("DATA_DIR=%s", i.cfg.DataDir),
	)

	if err := i.start(cmd); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not start application")
	}
	logger.Info().Str("command", cmd.Path).Msg("started application")
	return nil
}

func (i *Installer) startAgent(logger zerolog.Logger) error {
	cmd := i.command(i.cfg.Agent.Command)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("AGENT_SERVER=%s", i.cfg.Agent.Server),
		fmt.Sprintf("AGENT_UUID=%s", i.cfg.Agent.UUID),
		fmt.Sprintf("AGENT_SECRET=%s", i.cfg.Agent.ClientSecret),
		fmt.Sprintf("AGENT_TLS=%t", i.cfg.Agent.TLS),
	)

	if err := i.start(cmd); err != nil {
		return faults.Wrap(faults.ErrFilesystem, err, "could not start monitoring agent")
	}
	logger.Info().Str("command", cmd.Path).Msg("started monitoring agent")
	return nil
}

// command builds the start command. Deliberately not bound to ctx: the
// started process must outlive this invocation.
func (i *Installer) command(command string) *exec.Cmd {
	if !filepath.IsAbs(command) {
		command = filepath.Join(i.cfg.AppDir, command)
	}
	cmd := exec.Command(command)
	cmd.Dir = i.cfg.AppDir
	return cmd
}

// startDetached launches the process and lets go of it; the application
// outlives the installer.
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
