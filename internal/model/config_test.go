package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "https://accounts.zoho.com", cfg.Zoho.AccountsBase)
	assert.Equal(t, "https://mail.zoho.com/api", cfg.Zoho.APIBase)
	assert.Equal(t, "ZohoMail.messages.ALL,ZohoMail.accounts.READ", cfg.Zoho.Scope)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.Model)
	assert.Equal(t, 0.3, cfg.OpenAI.Temperature)
	assert.Equal(t, 500, cfg.OpenAI.MaxTokens)
	assert.Empty(t, cfg.Zoho.ClientID)
	assert.Empty(t, cfg.OpenAI.APIKey)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
db_path: /tmp/replies.db
zoho:
  client_id: file-client
  from_address: me@example.com
  inbox_folder_id: "42"
openai:
  api_key: file-key
  model: gpt-4o
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/replies.db", cfg.DBPath)
	assert.Equal(t, "file-client", cfg.Zoho.ClientID)
	assert.Equal(t, "me@example.com", cfg.Zoho.FromAddress)
	assert.Equal(t, "42", cfg.Zoho.InboxFolderID)
	assert.Equal(t, "file-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	// Untouched keys keep their defaults.
	assert.Equal(t, "https://accounts.zoho.com", cfg.Zoho.AccountsBase)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
zoho:
  client_id: file-client
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("ZOHO_CLIENT_ID", "env-client")
	t.Setenv("ZOHO_ACCOUNT_ID", "env-account")
	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("REPLY_SIGNATURE_HTML", "<p>Env sig</p>")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "env-client", cfg.Zoho.ClientID)
	assert.Equal(t, "env-account", cfg.Zoho.AccountID)
	assert.Equal(t, "env-key", cfg.OpenAI.APIKey)
	assert.Equal(t, "<p>Env sig</p>", cfg.Zoho.SignatureHTML)
}

func TestTokenValid(t *testing.T) {
	now := time.Now()

	var nilToken *Token
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&Token{}).Valid(now))
	assert.False(t, (&Token{AccessToken: "a", ExpiresAt: now.Add(-time.Minute)}).Valid(now))
	assert.True(t, (&Token{AccessToken: "a", ExpiresAt: now.Add(time.Minute)}).Valid(now))
}
