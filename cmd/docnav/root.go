package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnav/internal/app"
	"github.com/dgallion1/docnav/internal/config"
)

var configFile string
var logLevel string

var rootCmd = &cobra.Command{
	Use:   "docnav",
	Short: "Accessible navigation for scanned documents",
	Long: `docnav reads scanned pages and PDFs, extracts their text, builds a heading
outline and writes a spoken navigation script for every page.

Configuration comes from the environment, optionally overlaid by a YAML file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

// openApp loads configuration and builds the shared services.
func openApp() (*app.App, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	return app.New(cfg, app.NewLogger(cfg.LogLevel))
}
