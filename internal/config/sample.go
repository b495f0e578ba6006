package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Seed holds values written into a new sample config. Empty fields keep the
// sample's defaults.
type Seed struct {
	LocalRoot string
	Endpoint  string
	Bucket    string
}

// CreateSample writes the commented sample configuration to path, filling in
// any seed values.
func CreateSample(path string, seed Seed) error {
	content, err := renderSample(seed)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func renderSample(seed Seed) (string, error) {
	out := sampleConfig
	for _, set := range []struct{ section, key, value string }{
		{"paths", "local_root", seed.LocalRoot},
		{"object_store", "endpoint", seed.Endpoint},
		{"object_store", "bucket", seed.Bucket},
	} {
		if strings.TrimSpace(set.value) == "" {
			continue
		}
		var err error
		out, err = setSampleValue(out, set.section, set.key, strings.TrimSpace(set.value))
		if err != nil {
			return "", err
		}
	}
	return out, nil
}

// setSampleValue replaces the key's line inside [section], keeping the
// surrounding comments.
func setSampleValue(sample, section, key, value string) (string, error) {
	encoded, err := toml.Marshal(map[string]string{key: value})
	if err != nil {
		return "", fmt.Errorf("encode %s.%s: %w", section, key, err)
	}
	line := strings.TrimSpace(string(encoded))

	lines := strings.Split(sample, "\n")
	current := ""
	for i, l := range lines {
		trimmed := strings.TrimSpace(l)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = strings.Trim(trimmed, "[]")
			continue
		}
		if current != section {
			continue
		}
		name, _, ok := strings.Cut(trimmed, "=")
		if ok && strings.TrimSpace(name) == key {
			lines[i] = line
			return strings.Join(lines, "\n"), nil
		}
	}
	return "", fmt.Errorf("sample config has no %s.%s", section, key)
}

// Redacted returns a copy with credentials masked, for display.
func (c Config) Redacted() Config {
	if c.ObjectStore.AccessKey != "" {
		c.ObjectStore.AccessKey = "<set>"
	}
	if c.ObjectStore.SecretKey != "" {
		c.ObjectStore.SecretKey = "<set>"
	}
	return c
}
