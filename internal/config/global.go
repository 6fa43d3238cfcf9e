package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cmdvault/cv/internal/executor"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents configuration stored in ~/.config/cv/config.yml.
type Config struct {
	DBPath   string    `yaml:"db_path,omitempty"`
	Prompt   string    `yaml:"prompt,omitempty"`  // console or static
	Deliver  string    `yaml:"deliver,omitempty"` // clipboard, stdout, shell or ssh
	Shell    string    `yaml:"shell,omitempty"`
	LogLevel string    `yaml:"log_level,omitempty"`
	SSH      SSHConfig `yaml:"ssh,omitempty"`
}

// SSHConfig holds settings for running commands on remote hosts.
type SSHConfig struct {
	User                  string   `yaml:"user,omitempty"`
	ProxyJump             string   `yaml:"proxy_jump,omitempty"`
	ConnectTimeout        int      `yaml:"connect_timeout,omitempty"` // seconds, default 10
	Hosts                 []string `yaml:"hosts,omitempty"`
	Rate                  float64  `yaml:"rate,omitempty"`        // connections per second, 0 = unlimited
	KnownHosts            string   `yaml:"known_hosts,omitempty"` // default ~/.ssh/known_hosts
	InsecureIgnoreHostKey bool     `yaml:"insecure_ignore_host_key,omitempty"`
}

const (
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *Config

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/cv/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, GlobalConfigFile)
}

// Defaults returns the settings used for keys the file leaves unset.
func Defaults() Config {
	return Config{
		DBPath:   DefaultDBPath(),
		Prompt:   PromptConsole,
		Deliver:  executor.ModeClipboard,
		Shell:    executor.DefaultShell(),
		LogLevel: "warn",
		SSH: SSHConfig{
			ConnectTimeout: int(executor.DefaultConnectTimeout / time.Second),
		},
	}
}

// LoadGlobalConfig loads .env, the global configuration file and
// environment overrides, filling unset keys with defaults.
// A missing file is not an error.
func LoadGlobalConfig() (*Config, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	// .env is optional
	_ = godotenv.Load()

	cfg, err := ReadFile(GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", GlobalConfigPath(), err)
	}

	globalConfigCache = cfg
	return cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// ReadFile reads a config file without defaults or overrides.
// Returns an empty config if path is empty or the file doesn't exist.
func ReadFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	return &cfg, nil
}

// WriteFile saves the config, creating the directory if needed.
func (c *Config) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDB); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() {
	d := Defaults()
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	c.DBPath = ExpandTilde(c.DBPath)
	if c.Prompt == "" {
		c.Prompt = d.Prompt
	}
	if c.Deliver == "" {
		c.Deliver = d.Deliver
	}
	if c.Shell == "" {
		c.Shell = d.Shell
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.SSH.ConnectTimeout == 0 {
		c.SSH.ConnectTimeout = d.SSH.ConnectTimeout
	}
}

// Timeout returns ssh.connect_timeout as a duration.
func (s SSHConfig) Timeout() time.Duration {
	return time.Duration(s.ConnectTimeout) * time.Second
}

// Keys lists the keys accepted by Get and Set.
var Keys = []string{
	"db_path",
	"deliver",
	"log_level",
	"prompt",
	"shell",
	"ssh.connect_timeout",
	"ssh.hosts",
	"ssh.insecure_ignore_host_key",
	"ssh.known_hosts",
	"ssh.proxy_jump",
	"ssh.rate",
	"ssh.user",
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys, ", "))
}

// Get returns the value of key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "db_path":
		return c.DBPath, nil
	case "deliver":
		return c.Deliver, nil
	case "log_level":
		return c.LogLevel, nil
	case "prompt":
		return c.Prompt, nil
	case "shell":
		return c.Shell, nil
	case "ssh.connect_timeout":
		return strconv.Itoa(c.SSH.ConnectTimeout), nil
	case "ssh.hosts":
		return strings.Join(c.SSH.Hosts, ","), nil
	case "ssh.insecure_ignore_host_key":
		return strconv.FormatBool(c.SSH.InsecureIgnoreHostKey), nil
	case "ssh.known_hosts":
		return c.SSH.KnownHosts, nil
	case "ssh.proxy_jump":
		return c.SSH.ProxyJump, nil
	case "ssh.rate":
		return strconv.FormatFloat(c.SSH.Rate, 'g', -1, 64), nil
	case "ssh.user":
		return c.SSH.User, nil
	}
	return "", unknownKey(key)
}

// Set assigns value to key and validates the result.
func (c *Config) Set(key, value string) error {
	switch key {
	case "db_path":
		c.DBPath = value
	case "deliver":
		c.Deliver = value
	case "log_level":
		c.LogLevel = value
	case "prompt":
		c.Prompt = value
	case "shell":
		c.Shell = value
	case "ssh.connect_timeout":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("ssh.connect_timeout must be an integer: %w", err)
		}
		c.SSH.ConnectTimeout = n
	case "ssh.hosts":
		c.SSH.Hosts = nil
		for _, h := range strings.Split(value, ",") {
			if h = strings.TrimSpace(h); h != "" {
				c.SSH.Hosts = append(c.SSH.Hosts, h)
			}
		}
	case "ssh.insecure_ignore_host_key":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("ssh.insecure_ignore_host_key must be true or false: %w", err)
		}
		c.SSH.InsecureIgnoreHostKey = b
	case "ssh.known_hosts":
		c.SSH.KnownHosts = value
	case "ssh.proxy_jump":
		c.SSH.ProxyJump = value
	case "ssh.rate":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("ssh.rate must be a number: %w", err)
		}
		c.SSH.Rate = f
	case "ssh.user":
		c.SSH.User = value
	default:
		return unknownKey(key)
	}
	return c.Validate()
}
