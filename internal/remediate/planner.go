package remediate

import (
	"path"
	"sort"
	"strings"

	"shelfsync/internal/catalog"
	"shelfsync/internal/textutil"
)

// RemoteFolder tells the planner where a local folder lives in the bucket.
type RemoteFolder struct {
	// Folder is the remote Artist/Book path.
	Folder string
	// UploadPrefix is where new objects go, including a Songs segment when
	// the remote entity only uses that layout.
	UploadPrefix string
}

// Planner converts decisions into ordered ops.
type Planner struct {
	remote map[string]RemoteFolder
}

// NewPlanner returns a planner. remote maps local folder paths to their
// matched remote folder; unmapped folders use the same path remotely.
func NewPlanner(remote map[string]RemoteFolder) *Planner {
	return &Planner{remote: remote}
}

// RemoteFoldersFromPairs derives the planner's folder map from resolved
// local→remote pairs.
func RemoteFoldersFromPairs(pairs map[*catalog.Entity]*catalog.Entity) map[string]RemoteFolder {
	out := make(map[string]RemoteFolder, len(pairs))
	for local, remote := range pairs {
		if local == nil || remote == nil {
			continue
		}
		out[local.RawPath] = RemoteFolder{Folder: remote.RawPath, UploadPrefix: uploadPrefix(remote)}
	}
	return out
}

func uploadPrefix(remote *catalog.Entity) string {
	bare := remote.RawPath + "/"
	if len(remote.Prefixes) == 0 {
		return bare
	}
	for _, p := range remote.Prefixes {
		if p == bare {
			return bare
		}
	}
	return remote.Prefixes[0]
}

func (p *Planner) remoteFor(folder string) RemoteFolder {
	if rf, ok := p.remote[folder]; ok && rf.Folder != "" {
		if rf.UploadPrefix == "" {
			rf.UploadPrefix = rf.Folder + "/"
		}
		return rf
	}
	return RemoteFolder{Folder: folder, UploadPrefix: folder + "/"}
}

// Plan emits one op per file decision, ordered by folder then filename.
// Invalid decisions become Failed ops so every decision appears in the
// execution report.
func (p *Planner) Plan(decisions Decisions) []Op {
	var ops []Op
	for _, folder := range decisions.Folders() {
		files := decisions[folder].FileDecisions
		names := make([]string, 0, len(files))
		for name := range files {
			names = append(names, name)
		}
		sort.Strings(names)

		cleanFolder := strings.Trim(path.Clean("/"+folder), "/")
		remote := p.remoteFor(cleanFolder)
		for _, name := range names {
			ops = append(ops, p.planFile(cleanFolder, remote, name, files[name]))
		}
	}
	for i := range ops {
		ops[i].Seq = i
	}
	return ops
}

func (p *Planner) planFile(folder string, remote RemoteFolder, filename string, d FileDecision) Op {
	op := Op{EntityPath: folder, Filename: filename, Status: StatusPending}
	kind, overwrite, err := ParseAction(d.Action)
	if err != nil {
		op.Kind = NoAction
		op.Status = StatusFailed
		op.Reason = err.Error()
		return op
	}
	op.Kind = kind
	op.Overwrite = overwrite

	if strings.ContainsAny(filename, `/\`) || filename == "" {
		op.Status = StatusFailed
		op.Reason = "filename must be a bare file name"
		return op
	}

	localPath := path.Join(folder, filename)
	remotePath := path.Join(remote.Folder, filename)

	switch kind {
	case NoAction:
		op.Source = localPath
	case RenameLocal, RenameRemote:
		target, err := textutil.ValidateRenameTarget(d.RenameTarget)
		if err != nil {
			op.Status = StatusFailed
			op.Reason = err.Error()
			return op
		}
		if kind == RenameLocal {
			op.Source, op.Dest = localPath, path.Join(folder, target)
		} else {
			op.Source, op.Dest = remotePath, path.Join(remote.Folder, target)
		}
		if target == filename {
			op.Status = StatusSkipped
			op.Reason = "rename target equals current name"
		}
	case CopyToLocal:
		op.Source, op.Dest = remotePath, localPath
	case CopyToRemote:
		op.Source, op.Dest = localPath, remotePath
		op.UploadPrefix = remote.UploadPrefix
	case DeleteLocal:
		op.Source = localPath
	case DeleteRemote:
		op.Source = remotePath
	case DeleteBoth:
		op.Source, op.Dest = localPath, remotePath
	}
	return op
}
