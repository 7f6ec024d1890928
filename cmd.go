package main

type Command struct {
	Install struct {
		EnvFile string `help:"flat KEY=value config file path" short:"c"`
	} `cmd:"" help:"Download, configure and start the monitoring application."`
	Backup struct {
		EnvFile  string `help:"flat KEY=value config file path" short:"c"`
		Database string `help:"run history database path" short:"d"`
		DryRun   bool   `help:"build the archive but don't upload or prune"`
	} `cmd:"" help:"Archive the data directory to the WebDAV collection and prune expired archives."`
	Restore struct {
		Archive  string `arg:"" optional:"" help:"archive name to restore, most recent when omitted"`
		EnvFile  string `help:"flat KEY=value config file path" short:"c"`
		Database string `help:"run history database path" short:"d"`
	} `cmd:"" help:"Overwrite the data directory from a stored archive."`
	Daemon struct {
		EnvFile  string `help:"flat KEY=value config file path" short:"c"`
		Database string `help:"run history database path" short:"d"`
	} `cmd:"" help:"Run the backup cycle every day at BACKUP_HOUR."`
	History struct {
		Database string `help:"run history database path" short:"d" required:""`
		Limit    int    `help:"maximum number of runs to show" default:"20"`
	} `cmd:"" help:"Show recorded backup and restore runs."`
}
