package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var Version = "dev"

var logger zerolog.Logger

func init() {
	logger = zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", "househunt").
		Logger().
		Level(zerolog.InfoLevel)
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "househunt",
		Short:         "HouseHunt Kenya rental marketplace API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(darajasimCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
