package remediate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
)

// FileDecision is the reviewer's verdict for one file.
type FileDecision struct {
	Action       string `json:"action" yaml:"action"`
	RenameTarget string `json:"rename_target,omitempty" yaml:"rename_target,omitempty"`
}

// FolderDecision holds the per-file decisions for one local folder.
type FolderDecision struct {
	FileDecisions map[string]FileDecision `json:"fileDecisions" yaml:"fileDecisions"`
}

// Decisions maps a local folder path (Artist/Book) to its file decisions.
type Decisions map[string]FolderDecision

// Folders returns folder paths in sorted order.
func (d Decisions) Folders() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of file decisions.
func (d Decisions) Count() int {
	n := 0
	for _, f := range d {
		n += len(f.FileDecisions)
	}
	return n
}

// LoadDecisions reads a decisions file. Files ending in .yaml or .yml are
// parsed as YAML; everything else as JSON.
func LoadDecisions(path string) (Decisions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read decisions: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseDecisionsYAML(data)
	default:
		return ParseDecisionsJSON(data)
	}
}

// ParseDecisionsJSON decodes a JSON decisions document.
func ParseDecisionsJSON(data []byte) (Decisions, error) {
	var d Decisions
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse decisions json: %w", err)
	}
	return d, nil
}

// ParseDecisionsYAML decodes a YAML decisions document.
func ParseDecisionsYAML(data []byte) (Decisions, error) {
	var d Decisions
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse decisions yaml: %w", err)
	}
	return d, nil
}
