package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/arcanaland/gridsmith/internal/config"
	"github.com/arcanaland/gridsmith/internal/generator"
	"github.com/arcanaland/gridsmith/internal/llm"
	"github.com/arcanaland/gridsmith/internal/logging"
	"github.com/arcanaland/gridsmith/internal/store"
)

// app holds the services a command needs. Commands build only what they use.
type app struct {
	cfg   *config.Config
	log   logging.Logger
	store store.Store
	decks store.DeckStore
	close func() error
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.Level(cfg.Log.Level)
	logCfg.JSON = cfg.Log.JSON
	if logLevel != "" {
		logCfg.Level = logging.Level(logLevel)
	}
	if logJSON {
		logCfg.JSON = true
	}
	logCfg.Output = os.Stderr
	log := logging.New(logCfg)

	st, closeFn, err := openStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	log.Debug("store opened", "backend", cfg.Store.Backend)
	return &app{cfg: cfg, log: log, store: st, decks: st, close: closeFn}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig) (store.Library, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendMemory:
		return store.NewMemoryStore(), noop, nil
	case config.BackendFile:
		s, err := store.NewFileStore(cfg.Path)
		return s, noop, err
	case config.BackendSQLite:
		s, err := store.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.BackendDataAPI:
		s, err := store.NewDataAPIStore(store.DataAPIConfig{
			BaseURL:        cfg.DataAPIURL,
			APIKey:         cfg.APIKey,
			DataSource:     cfg.DataSource,
			Database:       cfg.Database,
			Collection:     cfg.Collection,
			DeckCollection: cfg.DeckCollection,
		})
		return s, noop, err
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// generator builds the transport chosen by llm.mode and a generator over it.
func (a *app) generator() (*generator.Generator, error) {
	transport, err := llm.New(llm.Options{
		Mode:         llm.Mode(a.cfg.LLM.Mode),
		Model:        a.cfg.LLM.Model,
		BaseURL:      a.cfg.LLM.BaseURL,
		APIKey:       a.cfg.LLM.APIKey,
		Timeout:      a.cfg.LLM.Timeout.Duration,
		RetryCount:   a.cfg.LLM.RetryCount,
		PollInterval: a.cfg.LLM.PollInterval.Duration,
		MaxPolls:     a.cfg.LLM.MaxPolls,
	}, a.log)
	if err != nil {
		return nil, err
	}
	cfg := generator.DefaultConfig()
	cfg.UseContext = a.cfg.Context.UseContext
	cfg.MaxContextCards = a.cfg.Context.MaxContextCards
	cfg.MaxEnergyCost = a.cfg.Balance.MaxEnergyCost
	cfg.DefaultEnergyCost = a.cfg.Balance.DefaultEnergyCost
	return generator.New(transport, a.store, cfg, a.log), nil
}
