package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"shelfsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LocalRoot = filepath.Join(base, "catalog")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ReportDir = filepath.Join(base, "reports")
	cfgVal.Ledger.Path = filepath.Join(base, "state", "ledger.db")
	cfgVal.Matching.Workers = 2
	cfgVal.Remediation.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.MkdirAll(builder.cfg.Paths.LocalRoot, 0o755); err != nil {
		t.Fatalf("mkdir local root: %v", err)
	}
	return builder.cfg
}

// WithObjectStore fills in object store credentials so the config counts
// as having a bucket configured.
func WithObjectStore(bucket string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.ObjectStore.Endpoint = "localhost:9000"
		b.cfg.ObjectStore.Bucket = bucket
		b.cfg.ObjectStore.AccessKey = "test"
		b.cfg.ObjectStore.SecretKey = "test-secret"
		b.cfg.ObjectStore.UseSSL = false
	}
}

// WithRuleSet selects a normalization rule set.
func WithRuleSet(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.RuleSet = name
	}
}

// WithDryRun sets the remediation dry-run default.
func WithDryRun(dryRun bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Remediation.DryRun = dryRun
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LocalRoot)
}
