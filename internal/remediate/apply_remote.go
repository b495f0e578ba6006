package remediate

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"shelfsync/internal/fault"
	"shelfsync/internal/objstore"
)

// remoteObject is a logical remote path resolved to a concrete key.
type remoteObject struct {
	key  string
	size int64
	ok   bool
}

func (e *Executor) resolveRemote(ctx context.Context, logical string) (remoteObject, error) {
	folder, filename := path.Split(logical)
	key, err := objstore.ResolveKey(ctx, e.bucket, folder, filename)
	if err != nil {
		if fault.IsNotFound(err) {
			return remoteObject{}, nil
		}
		return remoteObject{}, err
	}
	obj, err := e.bucket.Stat(ctx, key)
	if err != nil {
		if fault.IsNotFound(err) {
			return remoteObject{}, nil
		}
		return remoteObject{}, err
	}
	return remoteObject{key: key, size: obj.Size, ok: true}, nil
}

func (e *Executor) renameRemote(ctx context.Context, op Op) outcome {
	src, err := e.resolveRemote(ctx, op.Source)
	if err != nil {
		return failed(err)
	}
	dst, err := e.resolveRemote(ctx, op.Dest)
	if err != nil {
		return failed(err)
	}
	switch {
	case !src.ok && dst.ok:
		return skipped("already applied: destination exists and source is gone")
	case !src.ok:
		return failed(fault.Wrap(fault.ErrNotFound, "remediate", "rename-remote", op.Source, nil))
	case dst.ok && dst.size == src.size:
		// A previous run copied but did not delete the old key.
		return e.commit("remove "+src.key+" left by an interrupted rename", func() error {
			return e.bucket.Remove(ctx, src.key)
		})
	case dst.ok:
		return skipped(fmt.Sprintf("destination exists with different size (%d != %d)", dst.size, src.size))
	}
	dstKey := path.Join(path.Dir(src.key), path.Base(op.Dest))
	return e.commit("rename "+src.key+" to "+dstKey, func() error {
		if err := e.bucket.Copy(ctx, src.key, dstKey); err != nil {
			return err
		}
		return e.bucket.Remove(ctx, src.key)
	})
}

func (e *Executor) copyToLocal(ctx context.Context, op Op) outcome {
	src, err := e.resolveRemote(ctx, op.Source)
	if err != nil {
		return failed(err)
	}
	if !src.ok {
		return failed(fault.Wrap(fault.ErrNotFound, "remediate", "copy-to-local", op.Source, nil))
	}
	dst, err := e.resolveLocal(op.Dest)
	if err != nil {
		return failed(err)
	}
	if dst.found() {
		if dst.info.Size() == src.size {
			return skipped("already applied: destination has the same size")
		}
		if !op.Overwrite {
			return skipped(fmt.Sprintf("destination exists with different size (%d != %d); overwrite not requested", dst.info.Size(), src.size))
		}
	}
	return e.commit("download "+src.key+" to "+op.Dest, func() error {
		tmp := dst.abs + ".shelfsync-part"
		if err := os.MkdirAll(filepath.Dir(dst.abs), 0o755); err != nil {
			return err
		}
		if err := e.bucket.Download(ctx, src.key, tmp); err != nil {
			_ = os.Remove(tmp)
			return err
		}
		info, err := os.Stat(tmp)
		if err != nil {
			return err
		}
		if info.Size() != src.size {
			_ = os.Remove(tmp)
			return fmt.Errorf("downloaded size mismatch: got %d want %d", info.Size(), src.size)
		}
		return os.Rename(tmp, dst.abs)
	})
}

func (e *Executor) copyToRemote(ctx context.Context, op Op) outcome {
	src, err := e.resolveLocal(op.Source)
	if err != nil {
		return failed(err)
	}
	if !src.found() {
		return failed(fault.Wrap(fault.ErrNotFound, "remediate", "copy-to-remote", op.Source, nil))
	}
	dst, err := e.resolveRemote(ctx, op.Dest)
	if err != nil {
		return failed(err)
	}
	key := dst.key
	if dst.ok {
		if dst.size == src.info.Size() {
			return skipped("already applied: destination has the same size")
		}
		if !op.Overwrite {
			return skipped(fmt.Sprintf("destination exists with different size (%d != %d); overwrite not requested", dst.size, src.info.Size()))
		}
	} else {
		key = op.Dest
		if op.UploadPrefix != "" {
			key = op.UploadPrefix + path.Base(op.Dest)
		}
	}
	return e.commit("upload "+op.Source+" to "+key, func() error {
		return e.bucket.Upload(ctx, key, src.abs)
	})
}

func (e *Executor) deleteRemote(ctx context.Context, logical string) outcome {
	obj, err := e.resolveRemote(ctx, logical)
	if err != nil {
		return failed(err)
	}
	if !obj.ok {
		return skipped("already absent")
	}
	return e.commit("delete remote "+obj.key, func() error {
		return e.bucket.Remove(ctx, obj.key)
	})
}

func (e *Executor) deleteBoth(ctx context.Context, op Op) outcome {
	local, err := e.resolveLocal(op.Source)
	if err != nil {
		return failed(err)
	}
	remote, err := e.resolveRemote(ctx, op.Dest)
	if err != nil {
		return failed(err)
	}
	if !local.found() && !remote.ok {
		return skipped("already absent on both sides")
	}
	return e.commit("delete "+op.Source+" locally and remotely", func() error {
		if local.found() {
			if err := os.Remove(local.abs); err != nil {
				return err
			}
		}
		if remote.ok {
			return e.bucket.Remove(ctx, remote.key)
		}
		return nil
	})
}
