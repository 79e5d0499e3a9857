package zoho

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/mvidal/replydraft/internal/model"
	"github.com/mvidal/replydraft/internal/store"
)

// ErrNoCredentials is returned when no token is stored and no refresh token
// fallback is configured. The account must be connected first.
var ErrNoCredentials = errors.New("zoho: no stored token and no refresh token configured")

// RefreshError wraps a failed refresh exchange against the token endpoint.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("zoho: token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// expirySkew is subtracted from the provider's expires_in so a token is
// refreshed slightly before the provider would reject it. minLifetime is
// the floor applied after the skew.
const (
	expirySkew  = 60 * time.Second
	minLifetime = 60 * time.Second
)

// TokenManager owns the OAuth token lifecycle: it serves valid access
// tokens from the store, refreshes expired ones in place, and performs the
// initial authorization-code exchange for the connect flow.
type TokenManager struct {
	store store.TokenStore
	cfg   model.ZohoConfig
	log   *logrus.Entry
}

// NewTokenManager creates a token manager backed by the given store.
func NewTokenManager(s store.TokenStore, cfg model.ZohoConfig, log *logrus.Entry) *TokenManager {
	return &TokenManager{store: s, cfg: cfg, log: log}
}

// oauthConfig builds the oauth2 endpoints from the accounts base URL.
// Zoho expects client credentials in the POST parameters.
func (m *TokenManager) oauthConfig() *oauth2.Config {
	base := strings.TrimRight(m.cfg.AccountsBase, "/")
	return &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  m.cfg.RedirectURI,
		Scopes:       strings.Split(m.cfg.Scope, ","),
		Endpoint: oauth2.Endpoint{
			AuthURL:   base + "/oauth/v2/auth",
			TokenURL:  base + "/oauth/v2/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// AccessToken returns a valid access token, refreshing and persisting the
// stored record when it has expired. No network call happens while the
// stored token is still valid.
func (m *TokenManager) AccessToken(ctx context.Context) (string, error) {
	stored, err := m.store.LoadToken(ctx)
	if err != nil {
		return "", fmt.Errorf("loading stored token: %w", err)
	}

	if stored.Valid(time.Now()) {
		m.log.WithField("expires_at", stored.ExpiresAt).Debug("stored token still valid")
		return stored.AccessToken, nil
	}

	refresh := ""
	if stored != nil {
		refresh = stored.RefreshToken
	}
	if refresh == "" {
		refresh = m.cfg.RefreshToken
	}
	if refresh == "" {
		return "", ErrNoCredentials
	}

	m.log.Info("access token expired or missing, refreshing")
	return m.refresh(ctx, stored, refresh)
}

// refresh performs the refresh_token grant and upserts the stored record.
// The refresh token is preserved when the provider does not return a new
// one.
func (m *TokenManager) refresh(ctx context.Context, stored *model.Token, refreshToken string) (string, error) {
	src := m.oauthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", &RefreshError{Err: err}
	}

	record := model.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    skewedExpiry(tok.Expiry),
	}
	if tok.RefreshToken != "" {
		record.RefreshToken = tok.RefreshToken
	}
	if domain, ok := tok.Extra("api_domain").(string); ok {
		record.APIDomain = domain
	}
	if stored != nil {
		record.AccountID = stored.AccountID
		if record.APIDomain == "" {
			record.APIDomain = stored.APIDomain
		}
	}

	if err := m.store.ReplaceToken(ctx, record); err != nil {
		return "", fmt.Errorf("persisting refreshed token: %w", err)
	}

	m.log.WithField("expires_at", record.ExpiresAt).Info("token refreshed")
	return record.AccessToken, nil
}

// Exchange trades an authorization code for a token pair and persists it,
// replacing any previously stored token.
func (m *TokenManager) Exchange(ctx context.Context, code string) error {
	tok, err := m.oauthConfig().Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchanging authorization code: %w", err)
	}
	if tok.AccessToken == "" {
		return fmt.Errorf("token exchange returned no access token")
	}

	record := model.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.TokenType,
		ExpiresAt:    skewedExpiry(tok.Expiry),
	}
	if domain, ok := tok.Extra("api_domain").(string); ok {
		record.APIDomain = domain
	}

	if err := m.store.ReplaceToken(ctx, record); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	return nil
}

// AuthURL returns the consent URL for the authorization-code flow.
func (m *TokenManager) AuthURL(state string) string {
	return m.oauthConfig().AuthCodeURL(state,
		oauth2.SetAuthURLParam("access_type", "offline"),
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// APIDomain returns the api_domain recorded with the stored token, or ""
// when none is stored.
func (m *TokenManager) APIDomain(ctx context.Context) string {
	stored, err := m.store.LoadToken(ctx)
	if err != nil || stored == nil {
		return ""
	}
	return stored.APIDomain
}

// skewedExpiry applies the refresh skew to a provider expiry instant,
// keeping at least the minimum lifetime.
func skewedExpiry(providerExpiry time.Time) time.Time {
	now := time.Now()
	lifetime := providerExpiry.Sub(now) - expirySkew
	if lifetime < minLifetime {
		lifetime = minLifetime
	}
	return now.Add(lifetime)
}
