package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeObjectStore()
	if err := c.normalizeLedger(); err != nil {
		return err
	}
	c.normalizeMatching()
	if err := c.normalizeRemediation(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LocalRoot, err = expandPath(c.Paths.LocalRoot); err != nil {
		return fmt.Errorf("paths.local_root: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ReportDir) == "" {
		c.Paths.ReportDir = defaultReportDir
	}
	if c.Paths.ReportDir, err = expandPath(c.Paths.ReportDir); err != nil {
		return fmt.Errorf("paths.report_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeObjectStore() {
	s := &c.ObjectStore
	envFallback(&s.Endpoint, "SHELFSYNC_S3_ENDPOINT")
	envFallback(&s.Bucket, "SHELFSYNC_S3_BUCKET")
	envFallback(&s.AccessKey, "SHELFSYNC_S3_ACCESS_KEY")
	envFallback(&s.SecretKey, "SHELFSYNC_S3_SECRET_KEY")
	s.Endpoint = strings.TrimPrefix(strings.TrimPrefix(s.Endpoint, "https://"), "http://")
	s.Endpoint = strings.TrimRight(s.Endpoint, "/")
	s.Region = strings.TrimSpace(s.Region)
	if s.Region == "" {
		s.Region = defaultObjectStoreRegion
	}
	if s.ListWorkers <= 0 {
		s.ListWorkers = defaultListWorkers
	}
	s.ArtifactsPrefix = strings.Trim(strings.TrimSpace(s.ArtifactsPrefix), "/")
	if s.ArtifactsPrefix == "" {
		s.ArtifactsPrefix = defaultArtifactsPrefix
	}
	s.OutputPrefix = strings.Trim(strings.TrimSpace(s.OutputPrefix), "/")
	if s.OutputPrefix == "" {
		s.OutputPrefix = defaultOutputPrefix
	}
}

func envFallback(field *string, key string) {
	*field = strings.TrimSpace(*field)
	if *field != "" {
		return
	}
	if value, ok := os.LookupEnv(key); ok {
		*field = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeLedger() error {
	var err error
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = defaultLedgerPath
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	c.Ledger.Table = strings.TrimSpace(c.Ledger.Table)
	if c.Ledger.Table == "" {
		c.Ledger.Table = defaultLedgerTable
	}
	return nil
}

func (c *Config) normalizeMatching() {
	m := &c.Matching
	m.RuleSet = strings.ToLower(strings.TrimSpace(m.RuleSet))
	if m.RuleSet == "" {
		m.RuleSet = defaultRuleSet
	}
	exts := make([]string, 0, len(m.Extensions))
	seen := make(map[string]struct{}, len(m.Extensions))
	for _, ext := range m.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	m.Extensions = exts
}

func (c *Config) normalizeRemediation() error {
	if c.Remediation.Workers <= 0 {
		c.Remediation.Workers = defaultRemediationWorkers
	}
	if strings.TrimSpace(c.Remediation.LockFile) == "" {
		c.Remediation.LockFile = ""
		return nil
	}
	var err error
	if c.Remediation.LockFile, err = expandPath(c.Remediation.LockFile); err != nil {
		return fmt.Errorf("remediation.lock_file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
