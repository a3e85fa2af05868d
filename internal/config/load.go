package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load resolves the effective configuration: built-in defaults, then the
// config file (if present), then environment overrides. A missing config
// file is not an error — defaults apply.
func Load(env EnvOverrides) (Config, error) {
	cfg := Defaults()

	path := env.ConfigPath
	if path == "" {
		path = DefaultConfigPath()
	}

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if env.BaseURL != "" {
		cfg.Gateway.BaseURL = env.BaseURL
	}

	if env.Timeout != "" {
		seconds, err := strconv.Atoi(env.Timeout)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("config: %s must be a positive integer, got %q", EnvTimeout, env.Timeout)
		}

		cfg.Gateway.TimeoutSeconds = seconds
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// loadFile decodes a TOML config file over the current values of cfg.
// A missing file is ignored.
func loadFile(path string, cfg *Config) error {
	meta, err := toml.DecodeFile(path, cfg)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}

		return fmt.Errorf("config: unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	return nil
}

// validate rejects values that would fail confusingly later.
func validate(cfg Config) error {
	if cfg.Gateway.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: gateway.timeout_seconds must be positive, got %d", cfg.Gateway.TimeoutSeconds)
	}

	switch cfg.Storage.Visibility {
	case "private", "public":
	default:
		return fmt.Errorf("config: storage.visibility must be private or public, got %q", cfg.Storage.Visibility)
	}

	switch cfg.Wallet.Network {
	case "mainnet", "testnet":
	default:
		return fmt.Errorf("config: wallet.network must be mainnet or testnet, got %q", cfg.Wallet.Network)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: logging.level must be debug, info, warn or error, got %q", cfg.Logging.Level)
	}

	return nil
}

// ResolveSeed returns the wallet seed phrase: the IAGON_GO_SEED environment
// variable wins; otherwise the configured seed file is read. The seed is
// whitespace-trimmed and never logged.
func ResolveSeed(env EnvOverrides, cfg Config) (string, error) {
	if env.Seed != "" {
		return strings.TrimSpace(env.Seed), nil
	}

	if cfg.Wallet.SeedFile == "" {
		return "", fmt.Errorf("config: no seed available: set %s or wallet.seed_file", EnvSeed)
	}

	raw, err := os.ReadFile(cfg.Wallet.SeedFile)
	if err != nil {
		return "", fmt.Errorf("config: reading seed file: %w", err)
	}

	seed := strings.TrimSpace(string(raw))
	if seed == "" {
		return "", fmt.Errorf("config: seed file %s is empty", cfg.Wallet.SeedFile)
	}

	return seed, nil
}
