package remediate

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		action    string
		kind      Kind
		overwrite bool
		wantErr   bool
	}{
		{action: "", kind: NoAction},
		{action: "no-action", kind: NoAction},
		{action: "Rename_Local", kind: RenameLocal},
		{action: "copy-to-remote", kind: CopyToRemote},
		{action: "copy-to-local-overwrite", kind: CopyToLocal, overwrite: true},
		{action: "delete-both", kind: DeleteBoth},
		{action: "delete-local-overwrite", wantErr: true},
		{action: "shred", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			kind, overwrite, err := ParseAction(tt.action)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.action)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAction: %v", err)
			}
			if kind != tt.kind || overwrite != tt.overwrite {
				t.Fatalf("got %s/%v, want %s/%v", kind, overwrite, tt.kind, tt.overwrite)
			}
		})
	}
}

func TestLoadDecisionsJSONAndYAML(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "decisions.json")
	yamlPath := filepath.Join(dir, "decisions.yaml")
	if err := os.WriteFile(jsonPath, []byte(`{
  "Beatles/Abbey Road": {
    "fileDecisions": {
      "come_together.pdf": {"action": "rename-local", "rename_target": "Come Together.pdf"},
      "Something.pdf": {"action": "copy-to-remote"}
    }
  }
}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(yamlPath, []byte(`Beatles/Abbey Road:
  fileDecisions:
    come_together.pdf:
      action: rename-local
      rename_target: Come Together.pdf
    Something.pdf:
      action: copy-to-remote
`), 0o644); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{jsonPath, yamlPath} {
		d, err := LoadDecisions(path)
		if err != nil {
			t.Fatalf("LoadDecisions(%s): %v", path, err)
		}
		if d.Count() != 2 {
			t.Fatalf("%s: expected 2 decisions, got %d", path, d.Count())
		}
		got := d["Beatles/Abbey Road"].FileDecisions["come_together.pdf"]
		if got.Action != "rename-local" || got.RenameTarget != "Come Together.pdf" {
			t.Fatalf("%s: unexpected decision %+v", path, got)
		}
	}
}

func TestLoadDecisionsRejectsMalformedInput(t *testing.T) {
	if _, err := ParseDecisionsJSON([]byte(`{"a": [`)); err == nil {
		t.Fatal("expected json error")
	}
}
