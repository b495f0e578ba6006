package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shelfsync/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	if want := filepath.Join(tempHome, "catalog"); cfg.Paths.LocalRoot != want {
		t.Fatalf("unexpected local root: got %q want %q", cfg.Paths.LocalRoot, want)
	}
	if want := filepath.Join(tempHome, ".local", "share", "shelfsync", "state"); cfg.Paths.StateDir != want {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, want)
	}
	if cfg.Matching.RuleSet != "v4" {
		t.Fatalf("unexpected rule set: %q", cfg.Matching.RuleSet)
	}
	if cfg.Matching.MinOverlap != 5 || cfg.Matching.MinMatchPct != 0.80 {
		t.Fatalf("unexpected eligibility defaults: %+v", cfg.Matching)
	}
	if cfg.Remediation.DryRun {
		t.Fatal("expected dry_run false by default")
	}
	if cfg.OpLogPath() != filepath.Join(cfg.Paths.StateDir, "oplog.db") {
		t.Fatalf("unexpected oplog path %q", cfg.OpLogPath())
	}
	if cfg.LockPath() != filepath.Join(cfg.Paths.StateDir, "apply.lock") {
		t.Fatalf("unexpected lock path %q", cfg.LockPath())
	}
}

func TestLoadReadsTOMLFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "shelfsync.toml")

	cfg := config.Default()
	cfg.Paths.LocalRoot = filepath.Join(dir, "library")
	cfg.ObjectStore.Endpoint = "https://s3.example.test/"
	cfg.ObjectStore.Bucket = "books"
	cfg.Matching.RuleSet = "V2"
	cfg.Matching.Extensions = []string{"PDF", ".pdf", " txt "}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected existing config at %q, got %q exists=%v", path, resolved, exists)
	}
	if loaded.ObjectStore.Endpoint != "s3.example.test" {
		t.Fatalf("endpoint not normalized: %q", loaded.ObjectStore.Endpoint)
	}
	if !loaded.ObjectStoreConfigured() {
		t.Fatal("expected object store to be configured")
	}
	if loaded.Matching.RuleSet != "v2" {
		t.Fatalf("rule set not lowercased: %q", loaded.Matching.RuleSet)
	}
	if got := strings.Join(loaded.Matching.Extensions, ","); got != ".pdf,.txt" {
		t.Fatalf("extensions not normalized: %q", got)
	}
}

func TestLoadUsesEnvCredentialsAndDotEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[paths]\nlocal_root = \"/srv/catalog\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	env := "SHELFSYNC_S3_ACCESS_KEY=from-dotenv\nSHELFSYNC_S3_SECRET_KEY=secret\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Setenv("SHELFSYNC_S3_BUCKET", "from-env")
	// Registered so t.Setenv restores the variables godotenv sets.
	t.Setenv("SHELFSYNC_S3_ACCESS_KEY", "")
	os.Unsetenv("SHELFSYNC_S3_ACCESS_KEY")
	t.Setenv("SHELFSYNC_S3_SECRET_KEY", "")
	os.Unsetenv("SHELFSYNC_S3_SECRET_KEY")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ObjectStore.Bucket != "from-env" {
		t.Fatalf("bucket = %q", cfg.ObjectStore.Bucket)
	}
	if cfg.ObjectStore.AccessKey != "from-dotenv" || cfg.ObjectStore.SecretKey != "secret" {
		t.Fatalf("credentials not loaded from .env: %+v", cfg.ObjectStore)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"unknown rule set", func(c *config.Config) { c.Matching.RuleSet = "v9" }, "matching.rule_set"},
		{"match pct out of range", func(c *config.Config) { c.Matching.MinMatchPct = 1.5 }, "matching.min_match_pct"},
		{"zero overlap", func(c *config.Config) { c.Matching.MinOverlap = 0 }, "matching.min_overlap"},
		{"tier order", func(c *config.Config) { c.Classify.GoodMatchPct = 0.99 }, "excellent >= good >= partial"},
		{"table name", func(c *config.Config) { c.Ledger.Table = "drop table;" }, "ledger.table"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"missing local root", func(c *config.Config) { c.Paths.LocalRoot = "" }, "paths.local_root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, config.Seed{}); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Ledger.Table != "ledger" {
		t.Fatalf("unexpected ledger table %q", cfg.Ledger.Table)
	}
}

func TestCreateSampleWritesSeedValues(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	root := filepath.Join(dir, "My Catalog")
	seed := config.Seed{LocalRoot: root, Endpoint: "s3.example.test", Bucket: "songbooks"}
	if err := config.CreateSample(path, seed); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "# shelfsync configuration") {
		t.Fatal("expected sample comments to survive seeding")
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load seeded sample: %v", err)
	}
	if cfg.Paths.LocalRoot != root {
		t.Fatalf("local root = %q, want %q", cfg.Paths.LocalRoot, root)
	}
	if cfg.ObjectStore.Bucket != "songbooks" || !cfg.ObjectStoreConfigured() {
		t.Fatalf("unexpected object store %+v", cfg.ObjectStore)
	}
	if cfg.Matching.RuleSet != "v4" {
		t.Fatalf("unseeded values should keep defaults, got rule set %q", cfg.Matching.RuleSet)
	}
}

func TestRedactedMasksCredentials(t *testing.T) {
	cfg := config.Default()
	cfg.ObjectStore.AccessKey = "AKIA"
	cfg.ObjectStore.SecretKey = "hunter2"
	shown := cfg.Redacted()
	if shown.ObjectStore.AccessKey != "<set>" || shown.ObjectStore.SecretKey != "<set>" {
		t.Fatalf("credentials not masked: %+v", shown.ObjectStore)
	}
	if cfg.ObjectStore.SecretKey != "hunter2" {
		t.Fatal("Redacted must not modify the receiver")
	}
}

func TestEnsureDirectoriesCreatesStateAndReports(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.ReportDir = filepath.Join(base, "reports")
	cfg.Ledger.Path = filepath.Join(base, "db", "ledger.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.StateDir, cfg.Paths.ReportDir, filepath.Dir(cfg.Ledger.Path)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s: %v", dir, err)
		}
	}
}
