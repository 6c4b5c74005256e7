package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"CandleLedger/internal/calculator"
)

const (
	exitFailure   = 1
	exitTransient = 2
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "candle-ledger",
	Short: "Append yesterday's daily candle to the OHLC ledger",
	Long: `candle-ledger fetches hourly prices and the daily volume for one asset,
derives yesterday's (UTC) open/high/low/close and appends it to a capped
JSON ledger. Re-running for a date already present is a no-op.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runOnce,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	rootCmd.AddCommand(daemonCmd, showCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps a run error to the process status. A close that is not
// published yet is reported separately so wrappers can retry later.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, calculator.ErrCloseUnavailable):
		return exitTransient
	default:
		return exitFailure
	}
}

func runOnce(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.updater.Run(cmd.Context())
	return err
}

func resolveConfigPath(flag string) string {
	if flag != "" {
		return flag
	}
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "configs/config.yaml"
}
