// Package app wires the components of the reply-draft generator together
// for the command-line entry points.
package app

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/ai"
	"github.com/mvidal/replydraft/internal/credential"
	"github.com/mvidal/replydraft/internal/model"
	"github.com/mvidal/replydraft/internal/pipeline"
	"github.com/mvidal/replydraft/internal/store"
	"github.com/mvidal/replydraft/internal/suggest"
	"github.com/mvidal/replydraft/internal/zoho"
)

// App holds the assembled components shared by the binaries.
type App struct {
	Config   *model.Config
	Store    *store.SQLiteStore
	Tokens   *zoho.TokenManager
	Mail     *zoho.Client
	AI       *ai.Client
	Engine   *suggest.Engine
	Pipeline *pipeline.Service
	Log      *logrus.Logger
}

// NewLogger returns the shared logger: JSON formatted, info level.
func NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
	return log
}

// New loads configuration, opens the database, and builds every component.
// dbPath overrides the configured database location when non-empty.
func New(configPath, dbPath string) (*App, error) {
	log := NewLogger()

	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	// Secrets may live in the system keyring instead of the config file.
	if cfg.Zoho.ClientSecret == "" {
		cfg.Zoho.ClientSecret = credential.Resolve("ZOHO_CLIENT_SECRET", credential.KeyZohoClientSecret)
	}
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = credential.Resolve("OPENAI_API_KEY", credential.KeyOpenAIAPIKey)
	}

	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	db, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store at %s: %w", cfg.DBPath, err)
	}

	tokens := zoho.NewTokenManager(db, cfg.Zoho, log.WithField("component", "tokens"))
	mail := zoho.NewClient(tokens, cfg.Zoho, log.WithField("component", "zoho"))
	replyAI := ai.NewClient(cfg.OpenAI, log.WithField("component", "ai"))
	engine := suggest.NewEngine()

	return &App{
		Config: cfg,
		Store:  db,
		Tokens: tokens,
		Mail:   mail,
		AI:     replyAI,
		Engine: engine,
		Pipeline: pipeline.New(
			mail, engine, replyAI, db,
			log.WithField("component", "pipeline"),
		),
		Log: log,
	}, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.Store.Close()
}
