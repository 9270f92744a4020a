package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/walletshell/internal/config"
	"github.com/npratt/walletshell/internal/control"
	"github.com/npratt/walletshell/internal/controller"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/exec"
	"github.com/npratt/walletshell/internal/lifecycle"
	"github.com/npratt/walletshell/internal/runner"
	"github.com/npratt/walletshell/internal/shutdown"
	"github.com/npratt/walletshell/internal/tui"
	"github.com/npratt/walletshell/internal/updater"
	"github.com/npratt/walletshell/internal/walletd"
)

// shutdownGrace is added to the daemon stop timeout before a requested quit
// is abandoned and the lifecycle context is cancelled.
const shutdownGrace = 10 * time.Second

// tuiBufferSize is the TUI's event subscription buffer.
const tuiBufferSize = 1000

// applyStartOverrides copies explicitly set start flags into cfg.
func applyStartOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed(FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if cmd.Flags().Changed(FlagSocketPath) {
		cfg.Paths.Socket = viper.GetString(FlagSocketPath)
	}
	if cmd.Flags().Changed(FlagPIDFile) {
		cfg.Paths.PID = viper.GetString(FlagPIDFile)
	}
	if cmd.Flags().Changed(FlagDaemonCommand) {
		cfg.Daemon.Command = viper.GetString(FlagDaemonCommand)
	}
	if cmd.Flags().Changed(FlagDaemonArgs) {
		cfg.Daemon.Args = viper.GetStringSlice(FlagDaemonArgs)
	}
	if cmd.Flags().Changed(FlagCurrencies) {
		cfg.Display.Currencies = viper.GetStringSlice(FlagCurrencies)
	}
}

// newMachine builds the state machine from the configured timings.
func newMachine(cfg config.LifecycleConfig) lifecycle.Machine {
	return lifecycle.Machine{
		UpdateRetryInterval: cfg.UpdateRetryInterval,
		SlowQuitDelay:       cfg.SlowQuitDelay,
	}
}

// reapDaemon makes sure a managed daemon does not outlive the shell. It is a
// no-op once teardown has stopped the process.
func reapDaemon(wallet *walletd.Handle, timeout time.Duration, logger *slog.Logger) {
	if !wallet.Managed() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := wallet.Stop(ctx); err != nil {
		logger.Warn("stop daemon on exit failed", "error", err)
	}
}

func runStart(cmd *cobra.Command, logger *slog.Logger, logLevel *slog.LevelVar) error {
	// Explicit flag wins; otherwise the TUI runs when stdout is a terminal.
	tuiEnabled := viper.GetBool(FlagTUI)
	if !cmd.Flags().Changed(FlagTUI) {
		tuiEnabled = term.IsTerminal(int(os.Stdout.Fd()))
	}

	if viper.GetBool(FlagVerbose) {
		logLevel.Set(slog.LevelDebug)
		logger.Debug("verbose logging enabled")
	}

	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyStartOverrides(cmd, cfg)

	root := control.FindRoot("")
	cfg.Paths, err = control.ResolvePaths(cfg.Paths, root)
	if err != nil {
		return fmt.Errorf("resolve paths: %w", err)
	}

	if control.NewClient(cfg.Paths.Socket).IsRunning() {
		return fmt.Errorf("walletshell already running (socket: %s)", cfg.Paths.Socket)
	}

	lock, err := control.AcquireLock(cfg.Paths, control.InfoPath(root))
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()
	if err := lock.Publish(control.Info{StartTime: time.Now(), Version: version}); err != nil {
		logger.Warn("failed to write instance info", "error", err)
	}

	// TUI mode: redirect the logger to a file before anything logs.
	if tuiEnabled {
		logResult, err := SetupTUILogger(filepath.Dir(cfg.Paths.Log), logLevel, cfg.LogRotation)
		if err != nil {
			return err
		}
		defer func() { _ = logResult.Close() }()
		logger = logResult.Logger
		slog.SetDefault(logger)
	}

	logger.Info("walletshell starting",
		"version", version,
		"journal", cfg.Paths.Log,
		"socket", cfg.Paths.Socket,
		"managed_daemon", cfg.Daemon.Command != "",
		"tui", tuiEnabled,
	)

	ctx := cmd.Context()

	// Journal every event. The router is closed first on exit so the sink
	// drains before it is stopped.
	router := events.NewRouter(events.DefaultBufferSize)
	logSink := events.NewLogSink(cfg.Paths.Log, events.Rotation{
		MaxSizeMB:  cfg.LogRotation.MaxSizeMB,
		MaxBackups: cfg.LogRotation.MaxBackups,
		MaxAgeDays: cfg.LogRotation.MaxAgeDays,
		Compress:   cfg.LogRotation.Compress,
	})
	sinkCtx, sinkCancel := context.WithCancel(context.Background())
	defer sinkCancel()
	if err := logSink.Start(sinkCtx, router.Subscribe()); err != nil {
		router.Close()
		return fmt.Errorf("start journal: %w", err)
	}
	defer func() { _ = logSink.Stop() }()
	defer func() {
		router.Close()
		if n := router.Dropped(); n > 0 {
			logger.Warn("events dropped by slow subscribers", "count", n)
		}
	}()

	cmds := exec.NewExecRunner()
	wallet := walletd.New(cfg.Daemon, cmds, runner.NewExecProcessRunner(), logger)
	sup := newSupervisor(wallet, router, logger)
	if err := sup.start(ctx); err != nil {
		return fmt.Errorf("start wallet daemon: %w", err)
	}
	defer reapDaemon(wallet, cfg.Lifecycle.StopTimeout, logger)

	ctrl, err := controller.New(ctx, controller.Options{
		Machine:     newMachine(cfg.Lifecycle),
		StopTimeout: cfg.Lifecycle.StopTimeout,
		Version:     version,
	}, wallet, updater.New(cfg.Updater, cmds, logger), router, logger)
	if err != nil {
		return err
	}

	appCtx, appCancel := context.WithCancel(ctx)
	defer appCancel()

	// The control socket carries update-service notifications and CLI
	// requests in both modes.
	srv := control.NewServer(cfg.Paths.Socket, ctrl, logger)
	srvDone := make(chan struct{})
	go func() {
		defer close(srvDone)
		if err := srv.Start(appCtx); err != nil {
			logger.Error("control server error", "error", err)
		}
	}()
	defer func() {
		appCancel()
		<-srvDone
	}()

	run := func(runCtx context.Context) error {
		if ctrl.State().Phase == lifecycle.PhaseStarting {
			go sup.awaitReady(runCtx, ctrl)
		}
		go sup.watchExit(runCtx, ctrl)
		return ctrl.Run(runCtx)
	}
	graceful := cfg.Lifecycle.StopTimeout + shutdownGrace

	if !tuiEnabled {
		return shutdown.RunWithGracefulShutdown(appCtx, logger, graceful, ctrl, run)
	}

	// TUI mode: the lifecycle runs in the background and closing the router
	// ends the TUI once teardown finishes.
	tuiEvents := router.SubscribeBuffered(tuiBufferSize)
	tuiApp := tui.New(tuiEvents,
		tui.WithLifecycle(ctrl),
		tui.WithWallet(wallet),
		tui.WithCurrencies(cfg.Display.Currencies),
		tui.WithRefreshInterval(cfg.Display.RefreshInterval),
		tui.WithVersion(version),
	)

	ctrlDone := make(chan error, 1)
	go func() {
		err := shutdown.RunWithGracefulShutdown(appCtx, logger, graceful, ctrl, run)
		router.Close()
		ctrlDone <- err
	}()

	tuiErr := tuiApp.Run(appCtx)
	router.Unsubscribe(tuiEvents)

	// A force quit or TUI failure leaves the lifecycle running.
	if err := ctrl.RequestQuit(appCtx); err != nil && !errors.Is(err, controller.ErrStopped) {
		logger.Debug("quit request after TUI exit failed", "error", err)
	}

	var runErr error
	select {
	case runErr = <-ctrlDone:
	case <-time.After(graceful):
		logger.Warn("lifecycle did not stop in time, cancelling")
		appCancel()
		runErr = <-ctrlDone
	}
	return errors.Join(tuiErr, runErr)
}
