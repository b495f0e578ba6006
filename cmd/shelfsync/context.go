package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"shelfsync/internal/catalog"
	"shelfsync/internal/config"
	"shelfsync/internal/ledger"
	"shelfsync/internal/logging"
	"shelfsync/internal/objstore"
	"shelfsync/internal/oplog"
	"shelfsync/internal/reconcile"
)

// openBucket connects to the configured object store. Tests replace it.
var openBucket = func(cfg config.ObjectStore) (objstore.Bucket, error) {
	b, err := objstore.NewMinio(cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.Logging.Level = strings.ToLower(strings.TrimSpace(*c.logLevelFlag))
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerFor returns the process logger. Log output goes to stderr and the
// log file so stdout stays clean for tables and JSON.
func (c *commandContext) loggerFor(cmd *cobra.Command) *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg := c.configValue()
		if cfg == nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.NewFromConfig(cfg)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: logging disabled: %v\n", err)
			logger = logging.NewNop()
		}
		c.logger = logger
	})
	return c.logger
}

// bucket opens the object store, or returns nil when none is configured.
func (c *commandContext) bucket() (objstore.Bucket, error) {
	cfg := c.configValue()
	if cfg == nil || !cfg.ObjectStoreConfigured() {
		return nil, nil
	}
	return openBucket(cfg.ObjectStore)
}

func (c *commandContext) requireBucket() (objstore.Bucket, error) {
	b, err := c.bucket()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("object store not configured: set object_store.endpoint and object_store.bucket")
	}
	return b, nil
}

func (c *commandContext) openLedger() (*ledger.Store, error) {
	return ledger.Open(c.configValue())
}

func (c *commandContext) openOpLog() (*oplog.Store, error) {
	return oplog.Open(c.configValue().OpLogPath())
}

// stores holds the handles a command opened; close releases them.
type stores struct {
	bucket objstore.Bucket
	ledger *ledger.Store
}

func (s *stores) close() {
	if s.ledger != nil {
		_ = s.ledger.Close()
	}
}

func (s *stores) sources() reconcile.Sources {
	src := reconcile.Sources{Bucket: s.bucket}
	if s.ledger != nil {
		src.Ledger = s.ledger
	}
	return src
}

// openStores opens what pair needs.
func (c *commandContext) openStores(pair reconcile.Pair) (*stores, error) {
	s := &stores{}
	for _, store := range []catalog.Store{pair.A, pair.B} {
		switch store {
		case catalog.StoreRemote:
			b, err := c.requireBucket()
			if err != nil {
				return nil, err
			}
			s.bucket = b
		case catalog.StoreLedger:
			l, err := c.openLedger()
			if err != nil {
				return nil, err
			}
			s.ledger = l
		}
	}
	if s.bucket == nil {
		// Metadata probes still work for local:ledger when a bucket exists.
		b, err := c.bucket()
		if err != nil {
			s.close()
			return nil, err
		}
		s.bucket = b
	}
	return s, nil
}

func (c *commandContext) newEngine(cmd *cobra.Command, s *stores) (*reconcile.Engine, error) {
	logger := c.loggerFor(cmd)
	return reconcile.NewEngineFromConfig(c.configValue(), s.sources(), logger, reconcile.NewLogObserver(logger))
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
