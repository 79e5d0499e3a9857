package model

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// ZohoConfig holds credentials and operational overrides for the Zoho Mail
// integration. Folder and account overrides short-circuit API lookups when
// set.
type ZohoConfig struct {
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"client_secret"`
	RedirectURI  string `mapstructure:"redirect_uri" yaml:"redirect_uri"`

	// AccountsBase is the OAuth endpoint root (regional accounts server).
	AccountsBase string `mapstructure:"accounts_base" yaml:"accounts_base"`

	// APIBase is the mail API root used when the stored token carries no
	// api_domain to dispatch on.
	APIBase string `mapstructure:"api_base" yaml:"api_base"`

	Scope string `mapstructure:"scope" yaml:"scope"`

	// RefreshToken is a fallback used only when no token row is stored yet.
	RefreshToken string `mapstructure:"refresh_token" yaml:"refresh_token"`

	AccountID     string `mapstructure:"account_id" yaml:"account_id"`
	InboxFolderID string `mapstructure:"inbox_folder_id" yaml:"inbox_folder_id"`
	SentFolderID  string `mapstructure:"sent_folder_id" yaml:"sent_folder_id"`
	FromAddress   string `mapstructure:"from_address" yaml:"from_address"`

	// SignatureName selects a provider signature by name; SignatureHTML,
	// when set, overrides provider signatures entirely.
	SignatureName string `mapstructure:"signature_name" yaml:"signature_name"`
	SignatureHTML string `mapstructure:"signature_html" yaml:"signature_html"`
}

// OpenAIConfig holds settings for the completion API used to draft replies.
// An empty APIKey disables the AI engine and the pipeline falls back to
// similarity retrieval.
type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key" yaml:"api_key"`
	Model       string  `mapstructure:"model" yaml:"model"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// Config is the top-level application configuration.
type Config struct {
	DBPath string       `mapstructure:"db_path" yaml:"db_path"`
	Zoho   ZohoConfig   `mapstructure:"zoho" yaml:"zoho"`
	OpenAI OpenAIConfig `mapstructure:"openai" yaml:"openai"`
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/replydraft/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "replydraft", "config.yaml")
}

// DefaultDBPath returns the default sqlite database location.
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "replydraft.db")
	}
	return filepath.Join(home, ".config", "replydraft", "replydraft.db")
}

// envBindings maps config keys to the environment variables the deployment
// uses. All overrides enter through here; components never read the
// environment mid-algorithm.
var envBindings = map[string]string{
	"db_path":              "REPLYDRAFT_DB",
	"zoho.client_id":       "ZOHO_CLIENT_ID",
	"zoho.client_secret":   "ZOHO_CLIENT_SECRET",
	"zoho.redirect_uri":    "ZOHO_REDIRECT_URI",
	"zoho.accounts_base":   "ZOHO_BASE_ACCOUNTS",
	"zoho.api_base":        "ZOHO_BASE_API",
	"zoho.scope":           "ZOHO_SCOPE",
	"zoho.refresh_token":   "ZOHO_REFRESH_TOKEN",
	"zoho.account_id":      "ZOHO_ACCOUNT_ID",
	"zoho.inbox_folder_id": "ZOHO_INBOX_FOLDER_ID",
	"zoho.sent_folder_id":  "ZOHO_SENT_FOLDER_ID",
	"zoho.from_address":    "ZOHO_FROM_ADDRESS",
	"zoho.signature_name":  "SIGNATURE_NAME",
	"zoho.signature_html":  "REPLY_SIGNATURE_HTML",
	"openai.api_key":       "OPENAI_API_KEY",
	"openai.model":         "OPENAI_MODEL",
	"openai.base_url":      "OPENAI_BASE_URL",
	"openai.temperature":   "OPENAI_TEMPERATURE",
	"openai.max_tokens":    "OPENAI_MAX_TOKENS",
}

// defaultConfig returns a configuration with the provider defaults applied.
func defaultConfig() *Config {
	return &Config{
		DBPath: DefaultDBPath(),
		Zoho: ZohoConfig{
			AccountsBase: "https://accounts.zoho.com",
			APIBase:      "https://mail.zoho.com/api",
			Scope:        "ZohoMail.messages.ALL,ZohoMail.accounts.READ",
		},
		OpenAI: OpenAIConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com",
			Temperature: 0.3,
			MaxTokens:   500,
		},
	}
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Environment variables take precedence over file values; a missing file
// yields the defaults plus whatever the environment provides.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("db_path", DefaultDBPath())
	v.SetDefault("zoho.accounts_base", "https://accounts.zoho.com")
	v.SetDefault("zoho.api_base", "https://mail.zoho.com/api")
	v.SetDefault("zoho.scope", "ZohoMail.messages.ALL,ZohoMail.accounts.READ")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.base_url", "https://api.openai.com")
	v.SetDefault("openai.temperature", 0.3)
	v.SetDefault("openai.max_tokens", 500)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s to %s: %w", key, env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); !ok {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("reading config %s: %w", path, err)
			}
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}
