package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/cmdvault/cv/internal/seed"
	"github.com/cmdvault/cv/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	initSeed  bool
	initReset bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initSeed, "seed", false, "Load the starter library into an empty vault")
	initCmd.Flags().BoolVar(&initReset, "reset", false, "Delete the existing database first")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the vault database",
	Long: `Create the vault database and its search index.

With --seed, an empty vault is filled with the starter library of Cisco,
Linux, Proxmox and Ansible commands. A vault that already has entries is
never seeded twice.

With --reset, the existing database is deleted before anything else.

Examples:
  cv init --seed
  cv init --reset --seed --db ./lab.db`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if initReset {
		if err := removeDatabase(cfg.DBPath); err != nil {
			return err
		}
		log.Info().Str("path", cfg.DBPath).Msg("removed existing database")
	}

	db, err := storage.OpenDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	seeded := 0
	if initSeed {
		n, err := db.Count()
		if err != nil {
			return err
		}
		if n > 0 {
			log.Warn().Int("entries", n).Msg("vault is not empty, skipping seed")
		} else {
			drafts, err := seed.Starter()
			if err != nil {
				return fmt.Errorf("loading starter library: %w", err)
			}
			ids, err := db.CreateMany(drafts)
			if err != nil {
				return fmt.Errorf("seeding: %w", err)
			}
			seeded = len(ids)
		}
	}

	total, err := db.Count()
	if err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Vault ready: %s\n", db.Path())
		if seeded > 0 {
			outputHuman("Seeded %d commands\n", seeded)
		}
		outputHuman("Commands: %d\n", total)
		return nil
	}
	return outputJSON(InitResponse{Status: "initialized", Path: db.Path(), Seeded: seeded, Total: total})
}

// removeDatabase deletes the database file and its WAL side files.
func removeDatabase(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}
