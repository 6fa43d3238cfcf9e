package main

import (
	"fmt"
	"strings"

	"github.com/cmdvault/cv/internal/config"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values in ~/.config/cv/config.yml.

Usage:
  cv config                         # Show effective config
  cv config deliver                 # Get specific value
  cv config deliver stdout          # Set value
  cv config ssh.hosts sw1,sw2       # Comma-separated list

Keys:
  db_path              Database file (default ~/.local/share/cv/vault.db)
  prompt               Variable input: console or static
  deliver              Default destination: clipboard, stdout, shell or ssh
  shell                Shell used by 'cv run'
  log_level            debug, info, warn or error
  ssh.user             Remote user (default: current user)
  ssh.proxy_jump       Jump host for SSH
  ssh.connect_timeout  Seconds to wait for a connection
  ssh.hosts            Hosts used when deliver is ssh
  ssh.rate             New SSH connections per second (0 = unpaced)
  ssh.known_hosts      Host key file (default ~/.ssh/known_hosts)
  ssh.insecure_ignore_host_key
                       Accept any host key (true or false)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	// Setting works on the raw file, so a broken value can still be fixed
	if len(args) == 2 {
		return setConfig(normalizeKey(args[0]), args[1])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		key := normalizeKey(args[0])
		value, err := cfg.Get(key)
		if err != nil {
			return withCode(ExitDataError, err)
		}
		if humanOutput {
			outputHuman("%s\n", value)
			return nil
		}
		return outputJSON(map[string]string{key: value})
	}

	values := make(map[string]string, len(config.Keys))
	tbl := uitable.New()
	for _, key := range config.Keys {
		v, _ := cfg.Get(key)
		values[key] = v
		tbl.AddRow(key+":", v)
	}
	if humanOutput {
		fmt.Fprintln(stdout, tbl)
		return nil
	}
	return outputJSON(values)
}

func setConfig(key, value string) error {
	path := config.GlobalConfigPath()
	file, err := config.ReadFile(path)
	if err != nil {
		return withCode(ExitConfigError, err)
	}
	if err := file.Set(key, value); err != nil {
		return withCode(ExitDataError, err)
	}
	if err := file.WriteFile(path); err != nil {
		return err
	}
	config.ResetGlobalConfigCache()

	if humanOutput {
		outputHuman("Updated %s to %s\n", key, value)
		return nil
	}
	return outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
}

// normalizeKey makes keys case-insensitive and accepts dashes for underscores.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	return strings.ReplaceAll(key, "-", "_")
}
