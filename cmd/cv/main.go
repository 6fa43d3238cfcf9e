// Package main provides the cv CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/cmdvault/cv/internal/config"
	"github.com/cmdvault/cv/internal/entry"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	dbPath      string
	logLevel    string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		code := exitCodeFor(err)
		var st exitStatus
		if !errors.As(err, &st) {
			// SilenceErrors is set, so report here
			reportError(code, err.Error())
		}
		os.Exit(code)
	}
}

var rootCmd = &cobra.Command{
	Use:   "cv",
	Short: "Personal command-reference vault",
	Long: `cv keeps a local vault of reusable shell and device commands.

Commands are grouped by category and subcategory, searchable by free text
or filters (cat:cisco sub:vlan tag:ccna fav:), and may contain {variables}
that are filled in before the command is copied or run.

All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.SetupLogger(stderr)
		if logLevel != "" {
			if err := config.ValidateChoice("log level", strings.ToLower(logLevel), config.ValidLogLevels); err != nil {
				return withCode(ExitDataError, err)
			}
		}
		config.SetLogLevel(logLevel)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (overrides config and "+config.EnvDB+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.Version = Version
}

// loadConfig returns the effective configuration with flag overrides applied.
func loadConfig() (*config.Config, error) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		return nil, withCode(ExitConfigError, fmt.Errorf("loading config: %w", err))
	}
	cfg := *global
	if dbPath != "" {
		cfg.DBPath = config.ExpandTilde(dbPath)
	}
	if logLevel == "" {
		config.SetLogLevel(cfg.LogLevel)
	}
	return &cfg, nil
}

// openVault loads the configuration and opens the database.
// The caller is responsible for calling Close() on the returned DB.
func openVault() (*config.Config, *storage.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}

// parseID parses an entry id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, withCode(ExitDataError, fmt.Errorf("invalid id %q", arg))
	}
	return id, nil
}

// loadEntry opens the vault and fetches the entry named by arg.
func loadEntry(arg string) (*config.Config, *storage.DB, *entry.Entry, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, db, err := openVault()
	if err != nil {
		return nil, nil, nil, err
	}
	e, err := db.GetByID(id)
	if err != nil {
		db.Close()
		return nil, nil, nil, err
	}
	return cfg, db, e, nil
}
