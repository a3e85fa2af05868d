// Package session manages the authenticated lifetime of a connection to the
// Iagon gateway. A Session owns a single short-lived bearer token, minted by
// the challenge/response handshake: request a nonce for the wallet address,
// sign it with CIP-8, submit the signature, receive the token. The session
// implements iagon.TokenProvider so the API client always sees a live token.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iagon-community/iagon-go/internal/iagon"
)

// defaultTokenTTL bounds a token's assumed lifetime when the gateway issues
// an opaque (non-JWT) token with no readable expiry.
const defaultTokenTTL = time.Hour

// expirySkew is subtracted from the token expiry so a token is refreshed
// slightly before the gateway would reject it.
const expirySkew = 30 * time.Second

// Sentinel errors. Use errors.Is to check.
var (
	// ErrAuthentication covers every handshake failure: unreachable
	// gateway, rejected signature, bad credential.
	ErrAuthentication = errors.New("session: authentication failed")

	// ErrSessionExpired is returned by Token when the token is past expiry
	// and automatic refresh is disabled.
	ErrSessionExpired = errors.New("session: token expired")

	// ErrClosed is returned by Token after Close.
	ErrClosed = errors.New("session: closed")
)

// AuthError wraps the underlying cause of a handshake failure with the
// handshake stage that failed. Matches errors.Is(err, ErrAuthentication).
type AuthError struct {
	Stage string // "nonce", "sign", or "verify"
	Err   error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("session: %s: %v", e.Stage, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func (e *AuthError) Is(target error) bool {
	return target == ErrAuthentication
}

// Signer produces a CIP-8 signature over a challenge message on demand.
// Defined here at the consumer; the wallet package provides the real
// implementation. The session treats it as an opaque capability and never
// sees key material.
type Signer interface {
	// Address is the hex-encoded public address the gateway knows the
	// wallet by.
	Address() string

	// Sign returns the hex-encoded COSE_Sign1 signature and COSE_Key over
	// the given message.
	Sign(message []byte) (signature, key string, err error)
}

// Config carries the collaborators and knobs for opening a session.
type Config struct {
	// Signer is required.
	Signer Signer

	// BaseURL overrides the gateway endpoint. Empty selects the default.
	BaseURL string

	// HTTPClient is used for every request. Set its Timeout to bound each
	// call. nil selects http.DefaultClient.
	HTTPClient *http.Client

	// Logger for structured logging. nil selects slog.Default().
	Logger *slog.Logger

	// AutoRefresh re-runs the full handshake transparently when the token
	// expires, at most once per Token call. When false, an expired token
	// surfaces as ErrSessionExpired.
	AutoRefresh bool

	// TokenTTL is the assumed token lifetime when the gateway issues an
	// opaque token. Zero selects defaultTokenTTL.
	TokenTTL time.Duration
}

// Session holds the current bearer token and re-authenticates when asked.
// At most one valid token exists per session; refresh is serialized by the
// session mutex so concurrent callers trigger a single handshake.
type Session struct {
	signer      Signer
	handshake   *iagon.Client // unauthenticated, public endpoints only
	logger      *slog.Logger
	autoRefresh bool
	ttl         time.Duration

	baseURL    string
	httpClient *http.Client

	// now is the clock; tests override it to age tokens.
	now func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
	closed bool
}

// Open performs the login handshake once and returns a live session.
// Callers should arrange Close on every exit path, typically via defer.
func Open(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Signer == nil {
		return nil, errors.New("session: Config.Signer is required")
	}

	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	token, expiry, err := s.login(ctx)
	if err != nil {
		return nil, err
	}

	s.token = token
	s.expiry = expiry

	s.logger.Info("session opened", slog.Time("expiry", expiry))

	return s, nil
}

// Resume builds a session from a previously issued token without a
// handshake. The token's expiry is re-read from its claims; if it is
// already expired and AutoRefresh is off, the first Token call fails with
// ErrSessionExpired. A Signer is only required when AutoRefresh is on —
// without refresh the credential is never needed again.
func Resume(cfg Config, token string) (*Session, error) {
	if cfg.AutoRefresh && cfg.Signer == nil {
		return nil, errors.New("session: Config.Signer is required with AutoRefresh")
	}

	s, err := newSession(cfg)
	if err != nil {
		return nil, err
	}

	s.token = token
	s.expiry = tokenExpiry(token, s.ttl, s.now(), s.logger)

	s.logger.Info("session resumed", slog.Time("expiry", s.expiry))

	return s, nil
}

func newSession(cfg Config) (*Session, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Session{
		signer:      cfg.Signer,
		handshake:   iagon.NewClient(cfg.BaseURL, httpClient, nil, logger),
		logger:      logger,
		autoRefresh: cfg.AutoRefresh,
		ttl:         ttl,
		baseURL:     cfg.BaseURL,
		httpClient:  httpClient,
		now:         time.Now,
	}, nil
}

// Client returns an API client bound to this session's token. All calls
// through the client use the session's current token until it expires or
// the session is closed.
func (s *Session) Client() *iagon.Client {
	return iagon.NewClient(s.baseURL, s.httpClient, s, s.logger)
}

// Token returns the current bearer token, refreshing it first when expired
// and AutoRefresh is enabled. Refresh runs the full handshake and happens
// at most once per call — a persistently rejected credential fails rather
// than looping.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrClosed
	}

	if s.now().Before(s.expiry.Add(-expirySkew)) {
		return s.token, nil
	}

	if !s.autoRefresh || s.signer == nil {
		return "", ErrSessionExpired
	}

	s.logger.Info("token expired, re-authenticating")

	token, expiry, err := s.login(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.expiry = expiry

	s.logger.Info("session refreshed", slog.Time("expiry", expiry))

	return s.token, nil
}

// Expiry returns the current token's expiry time.
func (s *Session) Expiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.expiry
}

// CurrentToken returns the raw token without expiry checks, for callers
// that persist it between invocations. Returns "" after Close.
func (s *Session) CurrentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.token
}

// Close invalidates the session: it best-effort asks the gateway to expire
// the token, then forgets it. Safe to call more than once; Token fails with
// ErrClosed afterwards.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	token := s.token
	live := token != "" && s.now().Before(s.expiry)
	s.closed = true
	s.token = ""
	s.expiry = time.Time{}
	s.mu.Unlock()

	if !live {
		return nil
	}

	// Disconnect with the token we just dropped; the session itself no
	// longer vends it.
	client := iagon.NewClient(s.baseURL, s.httpClient, iagon.StaticToken(token), s.logger)

	if err := client.Disconnect(ctx); err != nil {
		s.logger.Warn("disconnect failed, token will expire server-side",
			slog.String("error", err.Error()),
		)

		return err
	}

	s.logger.Info("session closed")

	return nil
}

// login runs the three-step handshake: nonce, sign, verify. Token calls it
// with s.mu held — the handshake client never calls back into the session,
// and holding the lock is what serializes concurrent refreshes.
func (s *Session) login(ctx context.Context) (string, time.Time, error) {
	address := s.signer.Address()

	nonce, err := s.handshake.RequestNonce(ctx, address)
	if err != nil {
		return "", time.Time{}, &AuthError{Stage: "nonce", Err: err}
	}

	signature, key, err := s.signer.Sign([]byte(nonce))
	if err != nil {
		return "", time.Time{}, &AuthError{Stage: "sign", Err: err}
	}

	token, err := s.handshake.VerifySignature(ctx, address, signature, key)
	if err != nil {
		return "", time.Time{}, &AuthError{Stage: "verify", Err: err}
	}

	return token, tokenExpiry(token, s.ttl, s.now(), s.logger), nil
}

// tokenExpiry reads the expiry from the token's JWT exp claim. The parse is
// unverified — the gateway is the authority on its own tokens; we only need
// the timestamp to refresh proactively. Opaque tokens get now+ttl.
func tokenExpiry(token string, ttl time.Duration, now time.Time, logger *slog.Logger) time.Time {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
			return exp.Time
		}
	}

	logger.Debug("token has no readable expiry, assuming default TTL",
		slog.Duration("ttl", ttl),
	)

	return now.Add(ttl)
}
