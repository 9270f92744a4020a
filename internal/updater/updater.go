// Package updater sends requests to the update service through the
// configured helper commands.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/npratt/walletshell/internal/config"
	"github.com/npratt/walletshell/internal/exec"
)

// ErrNoVersion is returned when a request names no version.
var ErrNoVersion = errors.New("update version is empty")

// Channel implements controller.UpdateChannel on top of helper commands.
type Channel struct {
	cfg    config.UpdaterConfig
	cmds   exec.CommandRunner
	logger *slog.Logger
}

// New creates a Channel.
func New(cfg config.UpdaterConfig, cmds exec.CommandRunner, logger *slog.Logger) *Channel {
	if logger == nil {
		logger = slog.Default()
	}
	return &Channel{cfg: cfg, cmds: cmds, logger: logger}
}

// Download asks the update service to fetch version. Progress arrives later
// as update-progress notifications.
func (c *Channel) Download(ctx context.Context, version string) error {
	return c.run(ctx, "download", c.cfg.DownloadCommand, version)
}

// QuitAndInstall hands the downloaded version over to the installer. The
// installer takes over the process; a nil return means it accepted.
func (c *Channel) QuitAndInstall(ctx context.Context, version string) error {
	return c.run(ctx, "install", c.cfg.InstallCommand, version)
}

func (c *Channel) run(ctx context.Context, op string, argv []string, version string) error {
	if version == "" {
		return fmt.Errorf("%s: %w", op, ErrNoVersion)
	}
	if len(argv) == 0 {
		return fmt.Errorf("%s: no %s command configured", op, op)
	}
	name, args, err := config.ExpandCommand(argv, config.CommandVars{Version: version})
	if err != nil {
		return fmt.Errorf("%s command: %w", op, err)
	}

	c.logger.Info("update request", "op", op, "version", version, "command", name)
	if _, err := c.cmds.Run(ctx, nil, name, args...); err != nil {
		return fmt.Errorf("%s %s: %w", op, version, err)
	}
	return nil
}
