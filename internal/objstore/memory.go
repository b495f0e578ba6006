package objstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"shelfsync/internal/fault"
)

// FaultFunc lets tests fail selected operations. It receives the operation
// name ("list", "stat", "copy", "remove", "upload", "download") and key.
type FaultFunc func(op, key string) error

// Memory is an in-process Bucket.
type Memory struct {
	mu        sync.Mutex
	name      string
	objects   map[string]memObject
	fault     FaultFunc
	mutations int
}

type memObject struct {
	data    []byte
	modTime time.Time
}

// NewMemory returns an empty bucket with the given name.
func NewMemory(name string) *Memory {
	return &Memory{name: name, objects: make(map[string]memObject)}
}

// Put stores data under key without counting as a mutation.
func (m *Memory) Put(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memObject{data: append([]byte(nil), data...), modTime: time.Now().UTC()}
}

// Keys returns every stored key in sorted order.
func (m *Memory) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mutations counts successful copy, remove, and upload calls.
func (m *Memory) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

// SetFault installs a failure hook.
func (m *Memory) SetFault(fn FaultFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fault = fn
}

func (m *Memory) check(op, key string) error {
	if m.fault == nil {
		return nil
	}
	if err := m.fault(op, key); err != nil {
		return fault.Wrap(fault.ErrTransient, "objstore", op, key, err)
	}
	return nil
}

func (m *Memory) Name() string { return m.name }

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) List(ctx context.Context, prefix string, recursive bool) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("list", prefix); err != nil {
		return nil, err
	}
	seenPrefix := make(map[string]struct{})
	var out []Object
	for key, obj := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		if !recursive {
			if idx := strings.Index(rest, "/"); idx >= 0 {
				p := prefix + rest[:idx+1]
				if _, ok := seenPrefix[p]; !ok {
					seenPrefix[p] = struct{}{}
					out = append(out, Object{Key: p, IsPrefix: true})
				}
				continue
			}
		}
		out = append(out, Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Stat(ctx context.Context, key string) (Object, error) {
	if err := ctx.Err(); err != nil {
		return Object{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("stat", key); err != nil {
		return Object{}, err
	}
	obj, ok := m.objects[key]
	if !ok {
		return Object{}, fault.Wrap(fault.ErrNotFound, "objstore", "stat", key, nil)
	}
	return Object{Key: key, Size: int64(len(obj.data)), LastModified: obj.modTime}, nil
}

func (m *Memory) Exists(ctx context.Context, key string) (bool, error) {
	if _, err := m.Stat(ctx, key); err != nil {
		if fault.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *Memory) Copy(ctx context.Context, srcKey, dstKey string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("copy", srcKey); err != nil {
		return err
	}
	obj, ok := m.objects[srcKey]
	if !ok {
		return fault.Wrap(fault.ErrNotFound, "objstore", "copy", srcKey, nil)
	}
	m.objects[dstKey] = memObject{data: append([]byte(nil), obj.data...), modTime: time.Now().UTC()}
	m.mutations++
	return nil
}

func (m *Memory) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("remove", key); err != nil {
		return err
	}
	delete(m.objects, key)
	m.mutations++
	return nil
}

func (m *Memory) Upload(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", localPath, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check("upload", key); err != nil {
		return err
	}
	m.objects[key] = memObject{data: data, modTime: time.Now().UTC()}
	m.mutations++
	return nil
}

func (m *Memory) Download(ctx context.Context, key, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	if err := m.check("download", key); err != nil {
		m.mu.Unlock()
		return err
	}
	obj, ok := m.objects[key]
	m.mu.Unlock()
	if !ok {
		return fault.Wrap(fault.ErrNotFound, "objstore", "download", key, nil)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(localPath, obj.data, 0o644)
}
