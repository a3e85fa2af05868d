// Package config implements TOML configuration loading and platform-specific
// path resolution for iagon-go. Settings resolve through a three-layer
// override chain: defaults -> config file -> environment. CLI flags are
// applied on top by the caller because only the CLI knows them.
package config

import "time"

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Wallet  WalletConfig  `toml:"wallet"`
	Storage StorageConfig `toml:"storage"`
	Logging LoggingConfig `toml:"logging"`
}

// GatewayConfig selects the gateway endpoint and per-call behavior.
type GatewayConfig struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	AutoRefresh    bool   `toml:"auto_refresh"`
}

// WalletConfig locates the wallet credential. The seed phrase itself lives
// either in the IAGON_GO_SEED environment variable or in a file referenced
// here — it is never written to the config file by the tool.
type WalletConfig struct {
	SeedFile string `toml:"seed_file"`
	Network  string `toml:"network"` // "mainnet" or "testnet"
}

// StorageConfig holds upload defaults.
type StorageConfig struct {
	Password   string `toml:"password"`   // file encryption password
	Visibility string `toml:"visibility"` // "private" or "public"
	RegionID   string `toml:"region_id"`
}

// LoggingConfig controls the slog level.
type LoggingConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Timeout returns the per-call timeout as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}
