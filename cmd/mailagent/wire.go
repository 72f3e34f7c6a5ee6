package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/agent"
	"github.com/nhle/mail-agent/internal/ai"
	"github.com/nhle/mail-agent/internal/credential"
	"github.com/nhle/mail-agent/internal/logger"
	"github.com/nhle/mail-agent/internal/mailbox/imap"
	"github.com/nhle/mail-agent/internal/metrics"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/rules"
	"github.com/nhle/mail-agent/internal/store"
)

// app holds everything a running agent needs, so commands can share
// the startup sequence and release it with close.
type app struct {
	cfg     *model.AppConfig
	log     *zap.Logger
	store   *store.SQLiteStore
	mail    *imap.Adapter
	metrics *metrics.Metrics
	agent   *agent.Agent
}

// loadConfig reads the config file and fills in secrets from the
// environment and keyring.
func loadConfig(path string) (*model.AppConfig, []string, error) {
	cfg, err := model.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	missing := credential.NewResolver().Resolve(cfg)
	return cfg, missing, nil
}

// openStore opens the history database, or returns nil when it is disabled.
func openStore(cfg *model.AppConfig) (*store.SQLiteStore, error) {
	if cfg.Store.Path == "" {
		return nil, nil
	}
	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return s, nil
}

func imapConfig(c model.EmailConfig) imap.Config {
	return imap.Config{
		IMAPHost:      c.IMAPServer,
		IMAPPort:      c.IMAPPort,
		SMTPHost:      c.SMTPServer,
		SMTPPort:      c.SMTPPort,
		Username:      c.Username,
		Password:      c.Password,
		TLS:           c.UseSSL,
		Mailbox:       c.Mailbox,
		ArchiveFolder: c.ArchiveFolder,
		Timeout:       c.Timeout,
	}
}

// newApp performs the startup sequence shared by run and once.
func newApp(configPath string) (*app, error) {
	cfg, missing, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	for _, name := range missing {
		log.Warn("secret not configured", zap.String("key", name))
	}

	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	a.store, err = openStore(cfg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	classifier, err := ai.New(cfg.AI, log)
	if err != nil {
		a.close()
		return nil, err
	}
	if !classifier.Enabled() {
		log.Warn("no API key configured, every email gets the default analysis")
	}

	a.mail = imap.NewAdapter(imapConfig(cfg.Email), log)

	opts := agent.Options{
		Ledger:  agent.NewLedger(cfg.Agent.ProcessedRetentionCycles),
		Metrics: a.metrics,
		Logger:  log,
	}
	if a.store != nil {
		opts.History = a.store
		opts.Notifier = a.store
	}

	a.agent = agent.New(
		agent.ConfigFrom(cfg.Agent),
		a.mail,
		classifier,
		rules.Compile(cfg.Rules, log),
		opts,
	)
	return a, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("closing history store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
