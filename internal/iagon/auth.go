package iagon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// formContentType is used for the public handshake endpoints, which accept
// form-encoded bodies rather than JSON.
const formContentType = "application/x-www-form-urlencoded"

// RequestNonce asks the gateway for a login challenge for the given public
// address (hex-encoded base address bytes). The nonce must be signed with
// the wallet and submitted via VerifySignature to obtain a bearer token.
// This is a public endpoint — no token is attached.
func (c *Client) RequestNonce(ctx context.Context, publicAddress string) (string, error) {
	c.logger.Debug("requesting login nonce")

	form := url.Values{"publicAddress": {publicAddress}}

	var parsed struct {
		Nonce string `json:"nonce"`
	}

	err := c.doPublicJSON(ctx, "nonce", "/public/nonce", form, &parsed)
	if err != nil {
		return "", err
	}

	if parsed.Nonce == "" {
		return "", fmt.Errorf("iagon: nonce: gateway returned empty nonce")
	}

	return parsed.Nonce, nil
}

// VerifySignature submits a CIP-8 signature over a previously issued nonce
// and returns the bearer token minted by the gateway. signature and key are
// the hex-encoded COSE_Sign1 and COSE_Key produced by the wallet.
// This is a public endpoint — no token is attached.
func (c *Client) VerifySignature(ctx context.Context, publicAddress, signature, key string) (string, error) {
	c.logger.Debug("verifying signed nonce")

	form := url.Values{
		"publicAddress": {publicAddress},
		"signature":     {signature},
		"key":           {key},
	}

	var parsed struct {
		Session string `json:"session"`
	}

	err := c.doPublicJSON(ctx, "verify", "/public/verify", form, &parsed)
	if err != nil {
		return "", err
	}

	if parsed.Session == "" {
		return "", fmt.Errorf("iagon: verify: gateway returned empty session token")
	}

	return parsed.Session, nil
}

// doPublicJSON posts a form to a public endpoint without attaching a token
// and decodes the JSON response. Shared by RequestNonce and VerifySignature.
func (c *Client) doPublicJSON(ctx context.Context, op, path string, form url.Values, out any) error {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("iagon: %s: creating request: %w", op, err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", formContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.Body),
			Err:        classifyStatus(resp.StatusCode),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("iagon: %s: decoding response: %w", op, err)
	}

	return nil
}

// CheckAuth reports whether the current token is still accepted by the
// gateway. A revoked or expired token surfaces as ErrUnauthorized.
func (c *Client) CheckAuth(ctx context.Context) (bool, error) {
	var env successEnvelope

	err := c.doJSON(ctx, "checkauth", http.MethodPost, "/public/checkauth", "", nil, &env)
	if err != nil {
		return false, err
	}

	return env.Success, nil
}

// Disconnect asks the gateway to expire the current token. The session
// calls this on Close; failures are reported but the caller usually treats
// them as best-effort.
func (c *Client) Disconnect(ctx context.Context) error {
	resp, err := c.do(ctx, "disconnect", http.MethodPost, "/public/disconnect", "", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("disconnected session token")

	return nil
}
