package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"

	"github.com/npratt/walletshell/internal/config"
	"github.com/npratt/walletshell/internal/control"
	"github.com/npratt/walletshell/internal/lifecycle"
)

var version = "dev"

// getClient connects to the running shell, found through instance.json or
// the configured socket path.
func getClient() (*control.Client, error) {
	if info, err := control.FindInfo(""); err == nil {
		return control.NewClient(info.SocketPath), nil
	}
	sock := viper.GetString(FlagSocketPath)
	if sock == "" {
		sock = config.Default().Paths.Socket
	}
	resolved, err := control.ResolvePaths(config.PathsConfig{Socket: sock}, control.FindRoot(""))
	if err != nil {
		return nil, fmt.Errorf("resolve socket path: %w", err)
	}
	return control.NewClient(resolved.Socket), nil
}

// journalPath returns the event journal of the running shell, or the
// configured one.
func journalPath() string {
	if info, err := control.FindInfo(""); err == nil && info.LogPath != "" {
		return info.LogPath
	}
	logPath := viper.GetString(FlagLogFile)
	if logPath == "" {
		logPath = config.Default().Paths.Log
	}
	resolved, err := control.ResolvePaths(config.PathsConfig{Log: logPath}, control.FindRoot(""))
	if err != nil {
		return logPath
	}
	return resolved.Log
}

// parseNotification validates a CLI notification before it is sent.
func parseNotification(args []string) (lifecycle.EventKind, json.RawMessage, error) {
	kind := lifecycle.EventKind(args[0])
	if !kind.Valid() {
		names := make([]string, len(lifecycle.Kinds))
		for i, k := range lifecycle.Kinds {
			names[i] = string(k)
		}
		return "", nil, fmt.Errorf("unknown notification %q (one of: %s)", args[0], strings.Join(names, ", "))
	}
	if len(args) < 2 {
		return kind, nil, nil
	}
	if !gjson.Valid(args[1]) {
		return "", nil, fmt.Errorf("payload for %s is not valid JSON", kind)
	}
	return kind, json.RawMessage(args[1]), nil
}

func printStatus(status *control.StatusResponse) {
	fmt.Printf("Phase: %s\n", status.Phase)
	fmt.Printf("Ready: %t\n", status.Ready)
	if status.StatusText != "" {
		fmt.Printf("Status: %s\n", status.StatusText)
	}
	if status.StatusSubtext != "" {
		fmt.Printf("        %s\n", status.StatusSubtext)
	}
	if status.PendingVersion != "" {
		fmt.Printf("Pending update: %s\n", status.PendingVersion)
	}
	fmt.Printf("Uptime: %s\n", status.Uptime)
	fmt.Printf("Started: %s\n", status.StartTime)
	fmt.Printf("PID: %d\n", status.PID)
}

func main() {
	logLevel := &slog.LevelVar{}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	viper.SetEnvPrefix("WALLETSHELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "walletshell",
		Short: "Terminal shell for a staking wallet daemon",
		Long: `walletshell supervises a wallet daemon and walks it through its lifecycle:
waiting for the daemon to come up, unlocking the wallet for staking,
downloading and installing updates, and shutting down cleanly.

Balances are shown per currency once the wallet is ready. Update service
notifications are delivered through the control socket.`,
		SilenceUsage: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .walletshell/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Event journal path")
	rootCmd.PersistentFlags().String(FlagSocketPath, "", "Unix socket path for shell control")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("walletshell %s\n", version)
		},
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the wallet shell",
		Long: `Start the wallet shell in the foreground.

With daemon.command configured the wallet daemon is started and supervised;
otherwise an already running daemon is used. The terminal UI is enabled
when stdout is a terminal. Without it, log in with another tool and run
"walletshell notify login-complete".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(cmd, logger, logLevel)
		},
	}

	startCmd.Flags().Bool(FlagTUI, false, "Enable terminal UI")
	startCmd.Flags().String(FlagPIDFile, "", "PID file path")
	startCmd.Flags().String(FlagDaemonCommand, "", "Wallet daemon binary to start and supervise")
	startCmd.Flags().StringSlice(FlagDaemonArgs, nil, "Arguments for the wallet daemon (comma-separated)")
	startCmd.Flags().StringSlice(FlagCurrencies, nil, "Balance currencies to display (comma-separated)")
	startCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show lifecycle status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			status, err := client.Status()
			if err != nil {
				return err
			}

			if viper.GetBool(FlagJSON) {
				data, err := json.MarshalIndent(status, "", "  ")
				if err != nil {
					return fmt.Errorf("marshal status: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}
			printStatus(status)
			return nil
		},
	}
	statusCmd.Flags().Bool(FlagJSON, false, "Output status as JSON")
	_ = viper.BindPFlag(FlagJSON, statusCmd.Flags().Lookup(FlagJSON))

	notifyCmd := &cobra.Command{
		Use:   "notify <kind> [payload]",
		Short: "Deliver a lifecycle notification",
		Long: `Deliver a notification to the running shell, as the daemon or the update
service would. The payload is a JSON document, for example:

  walletshell notify update-found '{"version":"2.4.1"}'
  walletshell notify update-progress '{"percent":42.5}'
  walletshell notify login-complete`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, payload, err := parseNotification(args)
			if err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			if err := client.Notify(string(kind), payload); err != nil {
				return err
			}
			fmt.Printf("Delivered %s\n", kind)
			return nil
		},
	}

	quitCmd := &cobra.Command{
		Use:   "quit",
		Short: "Stop the wallet daemon and quit the shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			if err := client.Quit(); err != nil {
				return err
			}
			fmt.Println("Quit requested - the shell exits once the daemon has stopped")
			return nil
		},
	}

	eventsCmd := &cobra.Command{
		Use:   "events",
		Short: "View recent lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := journalPath()
			if viper.GetBool(FlagFollow) {
				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()
				return tailFollow(ctx, os.Stdout, path)
			}
			return tailLast(os.Stdout, path, viper.GetInt(FlagCount))
		},
	}

	eventsCmd.Flags().BoolP(FlagFollow, "f", false, "Follow event stream (like tail -f)")
	eventsCmd.Flags().Int(FlagCount, 20, "Number of recent events to show")
	eventsCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(quitCmd)
	rootCmd.AddCommand(eventsCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}
