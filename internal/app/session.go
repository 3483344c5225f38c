// Package app wires configuration, stores, the LLM client, and the engine
// into one session context passed to the CLI and the HTTP server.
package app

import (
	"go.uber.org/zap"

	"chemecare/internal/config"
	"chemecare/internal/engine"
	"chemecare/internal/insight"
	"chemecare/internal/store"
)

// Session is one initialized monitoring session rooted at a data directory.
type Session struct {
	DataDir string
	Config  *config.Config
	Engine  *engine.Engine
	Log     *zap.Logger
}

// Open loads config from dataDir (defaults apply when no file exists),
// ensures the data directory, opens both stores, and builds the engine.
// The API key comes from the environment, never from the config file.
func Open(dataDir, apiKey string, log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg, err := config.LoadOptional(dataDir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if _, err := store.EnsureDataDir(dataDir); err != nil {
		return nil, err
	}

	events := store.OpenEvents(store.FilePath(dataDir, cfg.Storage.EventsFile))
	todos := store.OpenTodos(store.FilePath(dataDir, cfg.Storage.TodosFile))

	ai := insight.New(insight.Config{
		APIKey:    apiKey,
		BaseURL:   cfg.AI.BaseURL,
		Model:     cfg.AI.Model,
		Timeout:   cfg.AITimeout(),
		MaxTokens: cfg.AI.MaxTokens,
	})

	return &Session{
		DataDir: dataDir,
		Config:  cfg,
		Engine:  engine.New(events, todos, cfg, ai, log),
		Log:     log,
	}, nil
}

// UploadsDir returns (creating if needed) the inspection photo directory.
func (s *Session) UploadsDir() (string, error) {
	return store.UploadsDir(s.DataDir)
}
