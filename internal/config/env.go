package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig  = "IAGON_GO_CONFIG"
	EnvSeed    = "IAGON_GO_SEED"
	EnvBaseURL = "IAGON_GO_BASE_URL"
	EnvTimeout = "IAGON_GO_TIMEOUT"
)

// EnvOverrides holds values derived from environment variables.
// These are resolved by ReadEnvOverrides and applied by Load.
type EnvOverrides struct {
	ConfigPath string // IAGON_GO_CONFIG: override config file path
	Seed       string // IAGON_GO_SEED: wallet seed phrase
	BaseURL    string // IAGON_GO_BASE_URL: gateway base URL override
	Timeout    string // IAGON_GO_TIMEOUT: per-call timeout in seconds
}

// ReadEnvOverrides reads environment variables and returns any overrides
// found. This does not modify a Config; Load applies the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath: os.Getenv(EnvConfig),
		Seed:       os.Getenv(EnvSeed),
		BaseURL:    os.Getenv(EnvBaseURL),
		Timeout:    os.Getenv(EnvTimeout),
	}
}
