// Package config provides configuration types and defaults for walletshell.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all configuration for walletshell.
type Config struct {
	Lifecycle   LifecycleConfig   `yaml:"lifecycle" mapstructure:"lifecycle"`
	Daemon      DaemonConfig      `yaml:"daemon" mapstructure:"daemon"`
	Updater     UpdaterConfig     `yaml:"updater" mapstructure:"updater"`
	Display     DisplayConfig     `yaml:"display" mapstructure:"display"`
	Paths       PathsConfig       `yaml:"paths" mapstructure:"paths"`
	LogRotation LogRotationConfig `yaml:"log_rotation" mapstructure:"log_rotation"`
}

// LifecycleConfig holds the lifecycle timings.
type LifecycleConfig struct {
	UpdateRetryInterval time.Duration `yaml:"update_retry_interval" mapstructure:"update_retry_interval"` // Re-check interval for updates found before login
	SlowQuitDelay       time.Duration `yaml:"slow_quit_delay" mapstructure:"slow_quit_delay"`             // Delay before "This may take a while."
	StopTimeout         time.Duration `yaml:"stop_timeout" mapstructure:"stop_timeout"`                   // How long to wait for the daemon to stop
}

// DaemonConfig describes how to run and query the wallet daemon.
// Command lists are argv vectors; {{.Currency}} is expanded in BalanceCommand.
type DaemonConfig struct {
	Command        string        `yaml:"command" mapstructure:"command"` // Daemon binary; empty when the daemon is managed elsewhere
	Args           []string      `yaml:"args" mapstructure:"args"`
	StatusCommand  []string      `yaml:"status_command" mapstructure:"status_command"`
	UnlockCommand  []string      `yaml:"unlock_command" mapstructure:"unlock_command"` // Reads the passphrase on stdin
	StopCommand    []string      `yaml:"stop_command" mapstructure:"stop_command"`
	BalanceCommand []string      `yaml:"balance_command" mapstructure:"balance_command"`
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// UpdaterConfig holds the update service commands. {{.Version}} is expanded
// in both.
type UpdaterConfig struct {
	DownloadCommand []string `yaml:"download_command" mapstructure:"download_command"`
	InstallCommand  []string `yaml:"install_command" mapstructure:"install_command"`
}

// DisplayConfig holds balance display settings.
type DisplayConfig struct {
	Currencies      []string      `yaml:"currencies" mapstructure:"currencies"`
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
}

// PathsConfig holds file paths for the event journal, socket and PID file.
type PathsConfig struct {
	Log    string `yaml:"log" mapstructure:"log"`
	Socket string `yaml:"socket" mapstructure:"socket"`
	PID    string `yaml:"pid" mapstructure:"pid"`
}

// LogRotationConfig holds settings for log file rotation.
// Applies to the event journal and the TUI debug log.
type LogRotationConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool `yaml:"compress" mapstructure:"compress"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Lifecycle: LifecycleConfig{
			UpdateRetryInterval: time.Second,
			SlowQuitDelay:       3 * time.Second,
			StopTimeout:         30 * time.Second,
		},
		Daemon: DaemonConfig{
			Command:        "",
			Args:           []string{},
			StatusCommand:  []string{"walletctl", "status", "--json"},
			UnlockCommand:  []string{"walletctl", "unlock", "--staking"},
			StopCommand:    []string{"walletctl", "stop"},
			BalanceCommand: []string{"walletctl", "balance", "--currency", "{{.Currency}}", "--json"},
			PollInterval:   time.Second,
		},
		Updater: UpdaterConfig{
			DownloadCommand: []string{"walletctl", "update", "download", "{{.Version}}"},
			InstallCommand:  []string{"walletctl", "update", "install", "{{.Version}}"},
		},
		Display: DisplayConfig{
			Currencies:      []string{"ECA", "BTC", "USD"},
			RefreshInterval: 5 * time.Second,
		},
		Paths: PathsConfig{
			Log:    ".walletshell/events.jsonl",
			Socket: ".walletshell/walletshell.sock",
			PID:    ".walletshell/walletshell.pid",
		},
		LogRotation: LogRotationConfig{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}

// Validate checks settings that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error
	positive := []struct {
		name string
		d    time.Duration
	}{
		{"lifecycle.update_retry_interval", c.Lifecycle.UpdateRetryInterval},
		{"lifecycle.slow_quit_delay", c.Lifecycle.SlowQuitDelay},
		{"lifecycle.stop_timeout", c.Lifecycle.StopTimeout},
		{"daemon.poll_interval", c.Daemon.PollInterval},
		{"display.refresh_interval", c.Display.RefreshInterval},
	}
	for _, p := range positive {
		if p.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", p.name, p.d))
		}
	}
	if len(c.Daemon.StatusCommand) == 0 {
		errs = append(errs, errors.New("daemon.status_command is required"))
	}
	if len(c.Display.Currencies) == 0 {
		errs = append(errs, errors.New("display.currencies must name at least one currency"))
	}
	return errors.Join(errs...)
}
