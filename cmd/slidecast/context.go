package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"slidecast/internal/config"
	"slidecast/internal/ledger"
	"slidecast/internal/logging"
	"slidecast/internal/pipeline"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolvedPath, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolvedPath
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// openLedger opens the run ledger next to the logs. A broken ledger is not
// fatal for pipeline commands; callers decide what to do with the error.
func (c *commandContext) openLedger() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return ledger.Open(filepath.Join(cfg.Paths.LogDir, "ledger.db"))
}

func (c *commandContext) newDriver() (*pipeline.Driver, *ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}

	store, ledgerErr := c.openLedger()
	opts := []pipeline.Option{}
	if ledgerErr == nil {
		opts = append(opts, pipeline.WithLedger(store))
	} else {
		logger.Warn("run ledger unavailable", logging.Error(ledgerErr))
		store = nil
	}

	driver, err := pipeline.New(cfg, logger, opts...)
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, nil, err
	}
	return driver, store, nil
}
