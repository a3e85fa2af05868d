package iagon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultBaseURL is the production Iagon storage gateway.
const DefaultBaseURL = "https://gw.v109.iagon.com/api/v2"

const userAgent = "iagon-go/0.1"

// TokenProvider supplies the current bearer token for authenticated calls.
// Defined at the consumer (iagon package) per Go convention "accept
// interfaces, return structs" — the session package provides the real
// implementation, handling expiry and refresh before the request is built.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider returning a fixed token. Useful for tests
// and for callers that manage token lifetime themselves.
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// Client is an HTTP client for the Iagon gateway API. It handles request
// construction, bearer authentication, and error classification. Requests
// are single-shot: any failure propagates to the caller unmodified, with
// the operation and HTTP status attached for diagnosis.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenProvider
	logger     *slog.Logger
}

// NewClient creates a gateway client. Pass an *http.Client with a Timeout
// to bound each call; a timeout surfaces as *TransportError.
// A nil token restricts the client to the public handshake endpoints.
func NewClient(baseURL string, httpClient *http.Client, token TokenProvider, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		token:      token,
		logger:     logger,
	}
}

// BaseURL returns the gateway base URL the client is bound to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes a single authenticated HTTP request against the gateway.
// The path is appended to the client's base URL. contentType is applied
// when body is non-nil. The caller must close the response body on success.
func (c *Client) do(
	ctx context.Context, op, method, path, contentType string, body io.Reader,
) (*http.Response, error) {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("iagon: %s: creating request: %w", op, err)
	}

	req.Header.Set("User-Agent", userAgent)

	if body != nil && contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if c.token != nil {
		tok, tokErr := c.token.Token(ctx)
		if tokErr != nil {
			return nil, fmt.Errorf("iagon: %s: obtaining token: %w", op, tokErr)
		}

		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)

		return nil, &TransportError{Op: op, URL: url, Err: err}
	}

	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		c.logger.Debug("request succeeded",
			slog.String("op", op),
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)

		return resp, nil
	}

	defer resp.Body.Close()

	apiErr := &APIError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(resp.Body),
		Err:        classifyStatus(resp.StatusCode),
	}

	c.logger.Warn("request rejected",
		slog.String("op", op),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	return nil, apiErr
}

// doJSON executes a request and decodes a JSON response body into out.
func (c *Client) doJSON(
	ctx context.Context, op, method, path, contentType string, body io.Reader, out any,
) error {
	resp, err := c.do(ctx, op, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("iagon: %s: decoding response: %w", op, err)
	}

	return nil
}

// errorMessage extracts the gateway's error message from a failed response.
// The gateway reports errors as {"message": "..."}; anything else falls back
// to the raw body.
func errorMessage(r io.Reader) string {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "(failed to read response body)"
	}

	var env successEnvelope
	if json.Unmarshal(raw, &env) == nil && env.Message != "" {
		return env.Message
	}

	return string(raw)
}
