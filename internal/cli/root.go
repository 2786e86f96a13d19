// Package cli implements the pagequest command-line interface using Cobra.
package cli

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/pagequest/internal/config"
	"github.com/dukerupert/pagequest/internal/database"
	"github.com/dukerupert/pagequest/internal/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "pagequest",
	Short: "Family reading tracker",
	Long: `pagequest tracks children's reading time, turns it into points and
streaks, and lets parents approve books and hand out rewards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default $PAGEQUEST_CONFIG or ./pagequest.toml)")
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app is what every command needs: config, logger and an open database.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	db     *sql.DB
}

func openApp() (*app, error) {
	path := configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	return &app{cfg: cfg, logger: logger, db: db}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
