package config

const (
	defaultConfigPath            = "~/.config/shelfsync/config.toml"
	defaultLocalRoot             = "~/catalog"
	defaultLogDir                = "~/.local/share/shelfsync/logs"
	defaultStateDir              = "~/.local/share/shelfsync/state"
	defaultReportDir             = "~/.local/share/shelfsync/reports"
	defaultLedgerPath            = "~/.local/share/shelfsync/ledger.db"
	defaultLedgerTable           = "ledger"
	defaultObjectStoreRegion     = "us-east-1"
	defaultListWorkers           = 4
	defaultArtifactsPrefix       = "artifacts"
	defaultOutputPrefix          = "output"
	defaultRuleSet               = "v4"
	defaultMinMatchPct           = 0.80
	defaultMinOverlap            = 5
	defaultMaxCountDiffPct       = 0.20
	defaultExcellentMatchPct     = 0.95
	defaultExcellentCountDiffPct = 0.05
	defaultGoodMatchPct          = 0.90
	defaultGoodCountDiffPct      = 0.10
	defaultPartialMatchPct       = 0.80
	defaultRemediationWorkers    = 4
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultExtensions = []string{".pdf", ".txt", ".json", ".png", ".jpg", ".jpeg"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	exts := make([]string, len(defaultExtensions))
	copy(exts, defaultExtensions)
	return Config{
		Paths: Paths{
			LocalRoot: defaultLocalRoot,
			LogDir:    defaultLogDir,
			StateDir:  defaultStateDir,
			ReportDir: defaultReportDir,
		},
		ObjectStore: ObjectStore{
			Region:          defaultObjectStoreRegion,
			UseSSL:          true,
			ListWorkers:     defaultListWorkers,
			ArtifactsPrefix: defaultArtifactsPrefix,
			OutputPrefix:    defaultOutputPrefix,
		},
		Ledger: Ledger{
			Path:  defaultLedgerPath,
			Table: defaultLedgerTable,
		},
		Matching: Matching{
			RuleSet:         defaultRuleSet,
			Extensions:      exts,
			MinMatchPct:     defaultMinMatchPct,
			MinOverlap:      defaultMinOverlap,
			MaxCountDiffPct: defaultMaxCountDiffPct,
			FuzzyNames:      true,
		},
		Classify: Classify{
			ExcellentMatchPct:     defaultExcellentMatchPct,
			ExcellentCountDiffPct: defaultExcellentCountDiffPct,
			GoodMatchPct:          defaultGoodMatchPct,
			GoodCountDiffPct:      defaultGoodCountDiffPct,
			PartialMatchPct:       defaultPartialMatchPct,
		},
		Remediation: Remediation{
			Workers: defaultRemediationWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
