package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"

	"davbak/faults"
)

// Defaults applied for keys not present in the environment or env file.
var defaults = map[string]string{
	"PORT":           "3001",
	"TZ":             "UTC",
	"DATA_DIR":       "./data",
	"APP_DIR":        "./app",
	"APP_COMMAND":    "app",
	"AGENT_COMMAND":  "agent",
	"ARCHIVE_PREFIX": "davbak",
	"BACKUP_HOUR":    "4",
	"KEEP_DAYS":      "7",
	"AGENT_TLS":      "false",
}

// Load reads settings from the process environment, overlaid on an optional
// flat KEY=value file. Environment variables take precedence over the file.
func Load(envFile string) (Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, faults.Wrap(faults.ErrConfiguration, err, "reading env file %s", envFile)
		}
	}

	cfg := Config{
		Timezone:      v.GetString("TZ"),
		DownloadURL:   v.GetString("DOWNLOAD_URL"),
		DataDir:       v.GetString("DATA_DIR"),
		AppDir:        v.GetString("APP_DIR"),
		AppCommand:    v.GetString("APP_COMMAND"),
		ArchivePrefix: v.GetString("ARCHIVE_PREFIX"),
		ArchivePass:   v.GetString("BACKUP_PASS"),
		WebDAV: WebDAV{
			URL:  v.GetString("WEBDAV_URL"),
			User: v.GetString("WEBDAV_USER"),
			Pass: v.GetString("WEBDAV_PASS"),
		},
		Agent: Agent{
			Command:      v.GetString("AGENT_COMMAND"),
			Server:       v.GetString("AGENT_SERVER"),
			UUID:         v.GetString("AGENT_UUID"),
			ClientSecret: v.GetString("AGENT_SECRET"),
		},
	}

	var err error
	if cfg.Port, err = intSetting(v, "PORT"); err != nil {
		return Config{}, err
	}
	if cfg.BackupHour, err = intSetting(v, "BACKUP_HOUR"); err != nil {
		return Config{}, err
	}
	if cfg.KeepDays, err = intSetting(v, "KEEP_DAYS"); err != nil {
		return Config{}, err
	}
	if cfg.Agent.TLS, err = strconv.ParseBool(v.GetString("AGENT_TLS")); err != nil {
		return Config{}, faults.New(faults.ErrConfiguration, "AGENT_TLS must be a boolean, got %q", v.GetString("AGENT_TLS"))
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func intSetting(v *viper.Viper, key string) (int, error) {
	raw := v.GetString(key)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, faults.New(faults.ErrConfiguration, "%s must be an integer, got %q", key, raw)
	}
	return n, nil
}

func validate(cfg Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return faults.New(faults.ErrConfiguration, "PORT must be in 1-65535, got %d", cfg.Port)
	}
	if cfg.BackupHour < 0 || cfg.BackupHour > 23 {
		return faults.New(faults.ErrConfiguration, "BACKUP_HOUR must be in 0-23, got %d", cfg.BackupHour)
	}
	if cfg.KeepDays < 1 {
		return faults.New(faults.ErrConfiguration, "KEEP_DAYS must be at least 1, got %d", cfg.KeepDays)
	}
	if err := jointlySet("WEBDAV_URL/WEBDAV_USER/WEBDAV_PASS",
		cfg.WebDAV.URL, cfg.WebDAV.User, cfg.WebDAV.Pass); err != nil {
		return err
	}
	return jointlySet("AGENT_SERVER/AGENT_UUID/AGENT_SECRET",
		cfg.Agent.Server, cfg.Agent.UUID, cfg.Agent.ClientSecret)
}

// jointlySet enforces the all-or-nothing rule on a group of settings.
func jointlySet(group string, vals ...string) error {
	set := 0
	for _, val := range vals {
		if val != "" {
			set++
		}
	}
	if set != 0 && set != len(vals) {
		return faults.New(faults.ErrConfiguration,
			"%s must be set together (%s)", group, fmt.Sprintf("%d of %d set", set, len(vals)))
	}
	return nil
}
