package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"shelfsync/internal/config"
	"shelfsync/internal/objstore"
	"shelfsync/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	bucket     *objstore.Memory
	configPath string
}

// setupCLITestEnv writes a config file for a temp catalog and routes the
// object store to an in-memory bucket holding remote.
func setupCLITestEnv(t *testing.T, local, remote map[string]int) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithObjectStore("catalog"))
	testsupport.WriteCatalog(t, cfg.Paths.LocalRoot, local)
	bucket := testsupport.NewMemoryBucket(remote)

	previous := openBucket
	openBucket = func(config.ObjectStore) (objstore.Bucket, error) { return bucket, nil }
	t.Cleanup(func() { openBucket = previous })

	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, bucket: bucket, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeDecisions(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "decisions.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write decisions: %v", err)
	}
	return path
}

func songs(prefix, word string, from, to int) map[string]int {
	out := make(map[string]int)
	for i := from; i <= to; i++ {
		out[fmt.Sprintf("%s%s %02d.pdf", prefix, word, i)] = 10 + i
	}
	return out
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireExitCode(t *testing.T, err error, want int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected exit code %d, got success", want)
	}
	if got := exitCode(err); got != want {
		t.Fatalf("expected exit code %d, got %d (%v)", want, got, err)
	}
}
