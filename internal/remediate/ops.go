package remediate

import (
	"fmt"
	"strings"

	"shelfsync/internal/ledger"
)

// Kind names a remediation operation.
type Kind string

const (
	NoAction     Kind = "no-action"
	RenameLocal  Kind = "rename-local"
	RenameRemote Kind = "rename-remote"
	CopyToLocal  Kind = "copy-to-local"
	CopyToRemote Kind = "copy-to-remote"
	DeleteLocal  Kind = "delete-local"
	DeleteRemote Kind = "delete-remote"
	DeleteBoth   Kind = "delete-both"
	LedgerInsert Kind = "ledger-insert"
	LedgerUpdate Kind = "ledger-update"
	LedgerDelete Kind = "ledger-delete"
)

// Kinds lists every supported kind.
func Kinds() []Kind {
	return []Kind{NoAction, RenameLocal, RenameRemote, CopyToLocal, CopyToRemote,
		DeleteLocal, DeleteRemote, DeleteBoth, LedgerInsert, LedgerUpdate, LedgerDelete}
}

// Mutates reports whether the kind changes any store.
func (k Kind) Mutates() bool {
	return k != NoAction
}

// ParseAction converts a decision action into a kind and overwrite flag.
// The copy actions accept an "-overwrite" suffix.
func ParseAction(action string) (Kind, bool, error) {
	normalized := strings.ToLower(strings.TrimSpace(action))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	overwrite := false
	if base, ok := strings.CutSuffix(normalized, "-overwrite"); ok {
		normalized = base
		overwrite = true
	}
	kind := Kind(normalized)
	switch kind {
	case NoAction, RenameLocal, RenameRemote, DeleteLocal, DeleteRemote, DeleteBoth:
		if overwrite {
			return "", false, fmt.Errorf("action %q does not support overwrite", action)
		}
		return kind, false, nil
	case CopyToLocal, CopyToRemote:
		return kind, overwrite, nil
	case "":
		return NoAction, false, nil
	default:
		return "", false, fmt.Errorf("unknown action %q", action)
	}
}

// Status is an op's terminal or pending state.
type Status string

const (
	StatusPending Status = "pending"
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Statuses lists statuses in report order.
func Statuses() []Status {
	return []Status{StatusDone, StatusSkipped, StatusFailed, StatusPending}
}

// Op is one planned mutation.
//
// Source and Dest are logical locations: local paths relative to the local
// root, and remote paths of the form folder/filename that are resolved
// against the bare and Songs prefixes at execution time. DeleteBoth uses
// Source for the local file and Dest for the remote file.
type Op struct {
	Seq        int    `json:"seq"`
	Kind       Kind   `json:"kind"`
	EntityPath string `json:"entity_path"`
	Filename   string `json:"filename,omitempty"`
	Source     string `json:"source,omitempty"`
	Dest       string `json:"dest,omitempty"`
	Overwrite  bool   `json:"overwrite,omitempty"`
	// UploadPrefix is the key prefix a new remote object is written under
	// when no existing key is found.
	UploadPrefix string         `json:"upload_prefix,omitempty"`
	Record       *ledger.Record `json:"record,omitempty"`
	Status       Status         `json:"status"`
	Reason       string         `json:"reason,omitempty"`
}

func (o Op) String() string {
	switch {
	case o.Dest != "":
		return fmt.Sprintf("%s %s -> %s", o.Kind, o.Source, o.Dest)
	case o.Source != "":
		return fmt.Sprintf("%s %s", o.Kind, o.Source)
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.EntityPath)
	}
}

// Terminal reports whether the op reached a final state.
func (o Op) Terminal() bool {
	return o.Status == StatusDone || o.Status == StatusSkipped || o.Status == StatusFailed
}
