package model

import "time"

// Token holds the OAuth access/refresh token pair for the Zoho Mail account.
// At most one token row exists at a time; a re-authorization replaces it
// wholesale.
type Token struct {
	ID           int64     `db:"id"`
	AccessToken  string    `db:"access_token"`
	RefreshToken string    `db:"refresh_token"`
	TokenType    string    `db:"token_type"`
	APIDomain    string    `db:"api_domain"`
	AccountID    string    `db:"account_id"`
	ExpiresAt    time.Time `db:"expires_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Valid reports whether the access token can still be used at the given
// instant.
func (t *Token) Valid(now time.Time) bool {
	return t != nil && t.AccessToken != "" && now.Before(t.ExpiresAt)
}
