package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Paths contains directory configuration.
type Paths struct {
	LocalRoot string `toml:"local_root"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
	ReportDir string `toml:"report_dir"`
}

// ObjectStore contains S3-compatible bucket settings.
type ObjectStore struct {
	Endpoint    string `toml:"endpoint"`
	Bucket      string `toml:"bucket"`
	Region      string `toml:"region"`
	AccessKey   string `toml:"access_key"`
	SecretKey   string `toml:"secret_key"`
	UseSSL      bool   `toml:"use_ssl"`
	ListWorkers int    `toml:"list_workers"`
	// ArtifactsPrefix and OutputPrefix name the sidecar namespaces that are
	// skipped while scanning and probed for metadata presence.
	ArtifactsPrefix string `toml:"artifacts_prefix"`
	OutputPrefix    string `toml:"output_prefix"`
}

// Ledger contains the processing ledger location.
type Ledger struct {
	Path  string `toml:"path"`
	Table string `toml:"table"`
}

// Matching contains normalization and candidate eligibility settings.
type Matching struct {
	RuleSet              string   `toml:"rule_set"`
	Extensions           []string `toml:"extensions"`
	MinMatchPct          float64  `toml:"min_match_pct"`
	MinOverlap           int      `toml:"min_overlap"`
	MaxCountDiffPct      float64  `toml:"max_count_diff_pct"`
	FuzzyNames           bool     `toml:"fuzzy_names"`
	Workers              int      `toml:"workers"`
	StripAnyArtistPrefix bool     `toml:"strip_any_artist_prefix"`
}

// Classify contains quality tier thresholds.
type Classify struct {
	ExcellentMatchPct     float64 `toml:"excellent_match_pct"`
	ExcellentCountDiffPct float64 `toml:"excellent_count_diff_pct"`
	GoodMatchPct          float64 `toml:"good_match_pct"`
	GoodCountDiffPct      float64 `toml:"good_count_diff_pct"`
	PartialMatchPct       float64 `toml:"partial_match_pct"`
}

// Remediation contains executor settings.
type Remediation struct {
	DryRun   bool   `toml:"dry_run"`
	Workers  int    `toml:"workers"`
	LockFile string `toml:"lock_file"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for shelfsync.
//
// Configuration sections by subsystem:
//   - Paths: local catalog root plus log, state, and report directories
//   - ObjectStore: S3-compatible bucket holding processed outputs
//   - Ledger: SQLite processing ledger
//   - Matching: normalizer rule set and eligibility thresholds
//   - Classify: quality tier thresholds
//   - Remediation: executor dry-run, concurrency, and lock file
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	ObjectStore ObjectStore `toml:"object_store"`
	Ledger      Ledger      `toml:"ledger"`
	Matching    Matching    `toml:"matching"`
	Classify    Classify    `toml:"classify"`
	Remediation Remediation `toml:"remediation"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadDotEnv(filepath.Dir(resolvedPath))

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadDotEnv reads .env files next to the config and in the working
// directory. Variables already present in the environment win.
func loadDotEnv(configDir string) {
	candidates := []string{".env"}
	if configDir != "" && configDir != "." {
		candidates = append([]string{filepath.Join(configDir, ".env")}, candidates...)
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err != nil || info.IsDir() {
			continue
		}
		_ = godotenv.Load(candidate)
	}
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("shelfsync.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories shelfsync writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir, c.Paths.ReportDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Ledger.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create ledger directory %q: %w", dir, err)
		}
	}
	return nil
}

// ObjectStoreConfigured reports whether enough settings exist to reach the bucket.
func (c *Config) ObjectStoreConfigured() bool {
	return c.ObjectStore.Endpoint != "" && c.ObjectStore.Bucket != ""
}

// OpLogPath returns the location of the execution log database.
func (c *Config) OpLogPath() string {
	return filepath.Join(c.Paths.StateDir, "oplog.db")
}

// LockPath returns the apply lock file location.
func (c *Config) LockPath() string {
	if c.Remediation.LockFile != "" {
		return c.Remediation.LockFile
	}
	return filepath.Join(c.Paths.StateDir, "apply.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
