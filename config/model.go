package config

import "github.com/rs/zerolog"

// Config holds every runtime setting. It is built once by Load and passed
// by value; nothing mutates it afterwards.
type Config struct {
	Port          int
	Timezone      string
	DownloadURL   string
	DataDir       string
	AppDir        string
	AppCommand    string
	ArchivePrefix string
	ArchivePass   string
	BackupHour    int
	KeepDays      int
	WebDAV        WebDAV
	Agent         Agent
}

// WebDAV is the remote collection used for archives. All three fields must
// be set together; an empty WebDAV disables backup and restore.
type WebDAV struct {
	URL  string
	User string
	Pass string
}

func (w WebDAV) Enabled() bool {
	return w.URL != ""
}

// Agent describes the optional monitoring agent started at install time.
type Agent struct {
	Command      string
	Server       string
	UUID         string
	ClientSecret string
	TLS          bool
}

func (a Agent) Enabled() bool {
	return a.Server != ""
}

func (c Config) MarshalZerologObject(e *zerolog.Event) {
	e.Int("port", c.Port)
	e.Str("tz", c.Timezone)
	e.Str("data_dir", c.DataDir)
	e.Str("app_dir", c.AppDir)
	e.Int("backup_hour", c.BackupHour)
	e.Int("keep_days", c.KeepDays)
	e.Bool("webdav", c.WebDAV.Enabled())
	e.Bool("encrypted", c.ArchivePass != "")
	e.Bool("agent", c.Agent.Enabled())
}
