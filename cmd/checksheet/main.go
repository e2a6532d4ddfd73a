// Command checksheet is an operator CLI over the record store. It decodes and
// prints carton labels, reports container progress, finalizes containers and
// runs a packing-order check from a scanner on stdin.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/checksheet/internal/config"
	"github.com/mamadbah2/checksheet/pkg/clients/checksheets"
	"github.com/mamadbah2/checksheet/pkg/logger"
)

var (
	envFile  string
	logLevel string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "checksheet",
	Short:         "Operator tools for container checksheets",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Environment file to load (default: .env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(finalizeCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(labelCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env is what commands talking to the record store need.
type env struct {
	cfg    *config.Config
	store  *checksheets.APIClient
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(logLevel)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: checksheets.NewClient(cfg.CheckSheet), logger: log}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
