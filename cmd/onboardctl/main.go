package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"onboardhub/internal/app"
	"onboardhub/internal/config"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "onboardctl",
		Short:         "Operator tooling for vendor onboarding",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(scoreCmd())
	rootCmd.AddCommand(processCmd())
	rootCmd.AddCommand(approveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openApp loads configuration and wires the services. Logs go to stderr so
// stdout stays machine-readable.
func openApp(ctx context.Context) (*app.App, *logrus.Logger, error) {
	cfg, err := config.Load()
	log := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		if !errors.Is(err, config.ErrNoDatabase) {
			return nil, log, err
		}
		log.Warnf("warning: %v", err)
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
