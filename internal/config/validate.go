package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"shelfsync/internal/normalize"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateLedger(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateClassify(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.LocalRoot == "" {
		return errors.New("paths.local_root must be set")
	}
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateLedger() error {
	if !tableNamePattern.MatchString(c.Ledger.Table) {
		return fmt.Errorf("ledger.table %q must be a plain SQL identifier", c.Ledger.Table)
	}
	return nil
}

func (c *Config) validateMatching() error {
	if known := normalize.KnownRuleSets(); !slices.Contains(known, c.Matching.RuleSet) {
		return fmt.Errorf("matching.rule_set %q is not one of %v", c.Matching.RuleSet, known)
	}
	if err := unitInterval("matching.min_match_pct", c.Matching.MinMatchPct); err != nil {
		return err
	}
	if err := unitInterval("matching.max_count_diff_pct", c.Matching.MaxCountDiffPct); err != nil {
		return err
	}
	if c.Matching.MinOverlap < 1 {
		return errors.New("matching.min_overlap must be positive")
	}
	if c.Matching.Workers < 0 {
		return errors.New("matching.workers must not be negative")
	}
	return nil
}

func (c *Config) validateClassify() error {
	k := c.Classify
	checks := []struct {
		name  string
		value float64
	}{
		{"classify.excellent_match_pct", k.ExcellentMatchPct},
		{"classify.excellent_count_diff_pct", k.ExcellentCountDiffPct},
		{"classify.good_match_pct", k.GoodMatchPct},
		{"classify.good_count_diff_pct", k.GoodCountDiffPct},
		{"classify.partial_match_pct", k.PartialMatchPct},
	}
	for _, check := range checks {
		if err := unitInterval(check.name, check.value); err != nil {
			return err
		}
	}
	if !(k.ExcellentMatchPct >= k.GoodMatchPct && k.GoodMatchPct >= k.PartialMatchPct) {
		return errors.New("classify match thresholds must satisfy excellent >= good >= partial")
	}
	if k.ExcellentCountDiffPct > k.GoodCountDiffPct {
		return errors.New("classify.excellent_count_diff_pct must not exceed classify.good_count_diff_pct")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be between 0 and 1", name)
	}
	return nil
}
