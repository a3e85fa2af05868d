package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/iagon-community/iagon-go/internal/config"
	"github.com/iagon-community/iagon-go/internal/session"
	"github.com/iagon-community/iagon-go/internal/tokenfile"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authenticate with the wallet seed and cache a session token",
		Long: `Perform the wallet handshake against the Iagon gateway: request a login
nonce, sign it with the wallet (CIP-8), and exchange the signature for a
bearer token. The token is cached on disk so subsequent commands do not
need the seed phrase until it expires.

The seed phrase is read from the ` + config.EnvSeed + ` environment variable
or from wallet.seed_file in the config. It is never stored or logged.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	w, err := loadWallet()
	if err != nil {
		return err
	}

	sess, err := session.Open(ctx, session.Config{
		Signer:     w,
		BaseURL:    resolvedCfg.Gateway.BaseURL,
		HTTPClient: gatewayHTTPClient(),
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}

	tf := &tokenfile.File{
		Token:  sess.CurrentToken(),
		Expiry: sess.Expiry(),
		Meta:   map[string]string{"address": w.Bech32Address()},
	}

	if err := tokenfile.Save(config.TokenPath(), tf); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	statusf("Logged in as %s\n", w.Bech32Address())
	statusf("Token valid until %s\n", sess.Expiry().Format("2006-01-02 15:04:05 MST"))

	return nil
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Expire the cached session token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := buildLogger()

	tokenPath := config.TokenPath()

	tf, err := tokenfile.Load(tokenPath)
	if err != nil {
		return err
	}

	if tf == nil {
		statusf("Already logged out.\n")
		return nil
	}

	// Best-effort server-side expiry; the local cache is removed regardless.
	cs, resumeErr := openCLISession(ctx)
	if resumeErr == nil {
		if closeErr := cs.sess.Close(ctx); closeErr != nil {
			logger.Debug("disconnect failed", "error", closeErr.Error())
		}
	}

	if err := tokenfile.Remove(tokenPath); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}

	statusf("Logged out.\n")

	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session status",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

// statusJSONOutput is the JSON output schema for the status command.
type statusJSONOutput struct {
	LoggedIn bool   `json:"logged_in"`
	Address  string `json:"address,omitempty"`
	Expiry   string `json:"expiry,omitempty"`
	Live     bool   `json:"live"`
}

func runStatus(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	out := statusJSONOutput{}

	tf, err := tokenfile.Load(config.TokenPath())
	if err != nil {
		return err
	}

	if tf != nil {
		out.LoggedIn = true
		out.Address = tf.Meta["address"]
		out.Expiry = tf.Expiry.Format("2006-01-02T15:04:05Z07:00")

		cs, resumeErr := openCLISession(ctx)
		if resumeErr == nil {
			live, checkErr := cs.sess.Client().CheckAuth(ctx)
			out.Live = checkErr == nil && live

			cs.persistToken()
		}
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(out)
	}

	if !out.LoggedIn {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("Logged in:    yes\n")

	if out.Address != "" {
		fmt.Printf("Address:      %s\n", out.Address)
	}

	fmt.Printf("Token expiry: %s\n", out.Expiry)
	fmt.Printf("Gateway live: %v\n", out.Live)

	return nil
}
