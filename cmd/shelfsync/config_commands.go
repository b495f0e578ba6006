package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"shelfsync/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create, check, and print the shelfsync configuration",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool
	var seed config.Seed

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented config, optionally seeded with the catalog root and bucket",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if _, err := os.Stat(target); err == nil && !overwrite {
				return fmt.Errorf("%s exists; pass --overwrite to replace it", target)
			} else if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("check config path: %w", err)
			}
			if seed.LocalRoot != "" {
				if seed.LocalRoot, err = config.ExpandPath(seed.LocalRoot); err != nil {
					return fmt.Errorf("resolve --local-root: %w", err)
				}
			}
			if err := config.CreateSample(target, seed); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			if seed.Endpoint == "" || seed.Bucket == "" {
				fmt.Fprintln(out, "Remote pairs need [object_store] endpoint and bucket (or SHELFSYNC_S3_ENDPOINT / SHELFSYNC_S3_BUCKET).")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	cmd.Flags().StringVar(&seed.LocalRoot, "local-root", "", "Set paths.local_root")
	cmd.Flags().StringVar(&seed.Endpoint, "endpoint", "", "Set object_store.endpoint")
	cmd.Flags().StringVar(&seed.Bucket, "bucket", "", "Set object_store.bucket")
	return cmd
}

func initTarget(flag string) (string, error) {
	if target := strings.TrimSpace(flag); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

// loadForInspection loads the config without the root pre-run so that load
// errors are reported by the command itself.
func loadForInspection(ctx *commandContext) (*config.Config, string, bool, error) {
	var path string
	if ctx.configFlag != nil {
		path = strings.TrimSpace(*ctx.configFlag)
	}
	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		return nil, resolved, exists, fmt.Errorf("load config: %w", err)
	}
	return cfg, resolved, exists, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the config and summarize each section",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, exists, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			source := resolved
			if !exists {
				source += " (not found, defaults used)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			fmt.Fprintln(out, renderTable([]string{"Section", "Setting", "Value"}, configRows(cfg), nil))
			fmt.Fprintf(out, "Object store configured: %s\n", yesNo(cfg.ObjectStoreConfigured()))
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func configRows(cfg *config.Config) [][]string {
	store := cfg.ObjectStore
	pct := func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	return [][]string{
		{"paths", "local_root", cfg.Paths.LocalRoot},
		{"paths", "report_dir", cfg.Paths.ReportDir},
		{"paths", "state_dir", cfg.Paths.StateDir},
		{"object_store", "endpoint", store.Endpoint},
		{"object_store", "bucket", store.Bucket},
		{"object_store", "credentials", yesNo(store.AccessKey != "" && store.SecretKey != "")},
		{"object_store", "sidecars", store.ArtifactsPrefix + "/, " + store.OutputPrefix + "/"},
		{"ledger", "path", cfg.Ledger.Path},
		{"ledger", "table", cfg.Ledger.Table},
		{"matching", "rule_set", cfg.Matching.RuleSet},
		{"matching", "eligibility", fmt.Sprintf("match >= %s, overlap >= %d, count diff <= %s",
			pct(cfg.Matching.MinMatchPct), cfg.Matching.MinOverlap, pct(cfg.Matching.MaxCountDiffPct))},
		{"matching", "fuzzy_names", yesNo(cfg.Matching.FuzzyNames)},
		{"classify", "excellent / good / partial", fmt.Sprintf("%s / %s / %s",
			pct(cfg.Classify.ExcellentMatchPct), pct(cfg.Classify.GoodMatchPct), pct(cfg.Classify.PartialMatchPct))},
		{"remediation", "dry_run", yesNo(cfg.Remediation.DryRun)},
		{"remediation", "workers", strconv.Itoa(cfg.Remediation.Workers)},
		{"remediation", "lock", cfg.LockPath()},
		{"logging", "format / level", cfg.Logging.Format + " / " + cfg.Logging.Level},
	}
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "show",
		Short:       "Print the effective config as TOML with credentials masked",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := loadForInspection(ctx)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(cfg.Redacted())
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
