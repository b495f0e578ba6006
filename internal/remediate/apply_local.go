package remediate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"shelfsync/internal/fault"
	"shelfsync/internal/fileutil"
	"shelfsync/internal/objstore"
)

// localFile is a logical local path resolved against the Songs conventions.
type localFile struct {
	abs  string
	info os.FileInfo
}

func (f localFile) found() bool { return f.info != nil }

// resolveLocal probes the bare folder and its Songs subfolders for the
// logical path folder/filename. When nothing exists the bare location is
// returned unresolved.
func (e *Executor) resolveLocal(logical string) (localFile, error) {
	folder, filename := path.Split(logical)
	for _, prefix := range objstore.FolderPrefixes(folder) {
		abs := filepath.Join(e.localRoot, filepath.FromSlash(prefix+filename))
		info, err := os.Stat(abs)
		if err == nil {
			if info.IsDir() {
				return localFile{}, fault.Wrap(fault.ErrValidation, "remediate", "resolve", logical+" is a directory", nil)
			}
			return localFile{abs: abs, info: info}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return localFile{}, fmt.Errorf("stat %s: %w", abs, err)
		}
	}
	return localFile{abs: filepath.Join(e.localRoot, filepath.FromSlash(logical))}, nil
}

func (e *Executor) renameLocal(op Op) outcome {
	src, err := e.resolveLocal(op.Source)
	if err != nil {
		return failed(err)
	}
	dst, err := e.resolveLocal(op.Dest)
	if err != nil {
		return failed(err)
	}
	switch {
	case !src.found() && dst.found():
		return skipped("already applied: destination exists and source is gone")
	case !src.found():
		return failed(fault.Wrap(fault.ErrNotFound, "remediate", "rename-local", op.Source, nil))
	case dst.found() && !os.SameFile(src.info, dst.info):
		return skipped("destination already exists")
	}
	// Keep the file in whichever subfolder it was found in.
	target := filepath.Join(filepath.Dir(src.abs), path.Base(op.Dest))
	return e.commit("rename "+op.Source+" to "+path.Base(op.Dest), func() error {
		return fileutil.MoveFile(src.abs, target)
	})
}

func (e *Executor) deleteLocal(logical string) outcome {
	f, err := e.resolveLocal(logical)
	if err != nil {
		return failed(err)
	}
	if !f.found() {
		return skipped("already absent")
	}
	return e.commit("delete local "+logical, func() error {
		return os.Remove(f.abs)
	})
}
