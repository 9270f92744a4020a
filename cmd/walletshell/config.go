package main

// Flag names for Viper binding
const (
	// Global flags
	FlagVerbose    = "verbose"
	FlagConfig     = "config"
	FlagLogFile    = "log-file"
	FlagSocketPath = "socket-path"
	FlagPIDFile    = "pid-file"

	// Start command flags
	FlagTUI           = "tui"
	FlagDaemonCommand = "daemon-command"
	FlagDaemonArgs    = "daemon-args"
	FlagCurrencies    = "currencies"

	// Events command flags
	FlagFollow = "follow"
	FlagCount  = "count"

	// Output format flags
	FlagJSON = "json"
)
