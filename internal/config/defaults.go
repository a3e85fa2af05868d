package config

// Default values applied before the config file and environment are read.
const (
	defaultTimeoutSeconds = 30
	defaultVisibility     = "private"
	defaultPassword       = "default"
	defaultNetwork        = "mainnet"
	defaultLogLevel       = "info"
)

// Defaults returns a Config populated with the built-in defaults.
// The gateway base URL is left empty — the client falls back to its own
// production default, so the config file never has to hardcode it.
func Defaults() Config {
	return Config{
		Gateway: GatewayConfig{
			TimeoutSeconds: defaultTimeoutSeconds,
			AutoRefresh:    true,
		},
		Wallet: WalletConfig{
			Network: defaultNetwork,
		},
		Storage: StorageConfig{
			Password:   defaultPassword,
			Visibility: defaultVisibility,
		},
		Logging: LoggingConfig{
			Level: defaultLogLevel,
		},
	}
}
