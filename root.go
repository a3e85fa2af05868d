package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/echovl/cardano-go"
	"github.com/spf13/cobra"

	"github.com/iagon-community/iagon-go/internal/config"
	"github.com/iagon-community/iagon-go/internal/iagon"
	"github.com/iagon-community/iagon-go/internal/session"
	"github.com/iagon-community/iagon-go/internal/tokenfile"
	"github.com/iagon-community/iagon-go/internal/wallet"
	"github.com/iagon-community/iagon-go/pkg/iagonfs"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagBaseURL    string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// resolvedCfg holds the effective configuration loaded by PersistentPreRunE.
var resolvedCfg config.Config

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "iagon-go",
		Short:   "Iagon storage CLI client",
		Long:    "A CLI for the Iagon decentralized storage network, authenticated with a Cardano wallet.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadConfig()
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "gateway base URL override")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLsCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newPutCmd())
	cmd.AddCommand(newMkdirCmd())
	cmd.AddCommand(newRmdirCmd())

	return cmd
}

// loadConfig resolves the effective configuration from the override chain
// (defaults -> file -> env -> flags) and stores it in resolvedCfg.
func loadConfig() error {
	env := config.ReadEnvOverrides()

	if flagConfigPath != "" {
		env.ConfigPath = flagConfigPath
	}

	cfg, err := config.Load(env)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override everything.
	if flagBaseURL != "" {
		cfg.Gateway.BaseURL = flagBaseURL
	}

	resolvedCfg = cfg

	return nil
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger() *slog.Logger {
	level := slog.LevelInfo

	switch resolvedCfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// gatewayHTTPClient returns an HTTP client with the configured per-call
// timeout. Timeouts surface as transport errors.
func gatewayHTTPClient() *http.Client {
	return &http.Client{Timeout: resolvedCfg.Gateway.Timeout()}
}

// walletNetwork maps the configured network name to the cardano-go constant.
func walletNetwork() cardano.Network {
	if resolvedCfg.Wallet.Network == "testnet" {
		return cardano.Testnet
	}

	return cardano.Mainnet
}

// loadWallet resolves the seed phrase and derives the wallet from it.
func loadWallet() (*wallet.Wallet, error) {
	seed, err := config.ResolveSeed(config.ReadEnvOverrides(), resolvedCfg)
	if err != nil {
		return nil, err
	}

	w, err := wallet.FromMnemonic(seed, walletNetwork())
	if err != nil {
		return nil, err
	}

	return w, nil
}

// cliSession bundles everything a storage command needs: the session, the
// filesystem facade over it, and token persistence across invocations.
type cliSession struct {
	sess        *session.Session
	fsys        *iagonfs.FS
	logger      *slog.Logger
	cachedToken string
}

// openCLISession resumes a session from the cached token. When the token is
// missing the user is told to log in; when it is expired and the seed is
// available, the session re-authenticates transparently on first use.
func openCLISession(_ context.Context) (*cliSession, error) {
	logger := buildLogger()

	tokenPath := config.TokenPath()
	if tokenPath == "" {
		return nil, fmt.Errorf("cannot determine token path")
	}

	tf, err := tokenfile.Load(tokenPath)
	if err != nil {
		return nil, err
	}

	if tf == nil {
		return nil, fmt.Errorf("not logged in — run 'iagon-go login' first")
	}

	cfg := session.Config{
		BaseURL:     resolvedCfg.Gateway.BaseURL,
		HTTPClient:  gatewayHTTPClient(),
		Logger:      logger,
		AutoRefresh: false,
	}

	// Refresh needs the wallet; wire it in when the seed is available so an
	// expired cached token heals without an explicit re-login.
	if resolvedCfg.Gateway.AutoRefresh {
		if w, walletErr := loadWallet(); walletErr == nil {
			cfg.Signer = w
			cfg.AutoRefresh = true
		} else {
			logger.Debug("seed unavailable, token refresh disabled",
				slog.String("reason", walletErr.Error()),
			)
		}
	}

	sess, err := session.Resume(cfg, tf.Token)
	if err != nil {
		return nil, err
	}

	fsys := iagonfs.New(sess.Client(), iagonfs.Config{
		Password:   resolvedCfg.Storage.Password,
		Visibility: resolvedCfg.Storage.Visibility,
		RegionID:   resolvedCfg.Storage.RegionID,
		Logger:     logger,
	})

	return &cliSession{
		sess:        sess,
		fsys:        fsys,
		logger:      logger,
		cachedToken: tf.Token,
	}, nil
}

// persistToken re-saves the token cache when a transparent refresh minted a
// new token during the command.
func (cs *cliSession) persistToken() {
	current := cs.sess.CurrentToken()
	if current == "" || current == cs.cachedToken {
		return
	}

	err := tokenfile.Save(config.TokenPath(), &tokenfile.File{
		Token:  current,
		Expiry: cs.sess.Expiry(),
	})
	if err != nil {
		cs.logger.Warn("failed to persist refreshed token", slog.String("error", err.Error()))
	}
}

// notLoggedIn reports whether err means the cached token is unusable and the
// user should run login.
func notLoggedIn(err error) bool {
	return errors.Is(err, session.ErrSessionExpired) || errors.Is(err, iagon.ErrUnauthorized)
}
