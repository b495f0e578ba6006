package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"shelfsync/internal/catalog"
	"shelfsync/internal/logging"
	"shelfsync/internal/objstore"
)

// Remote inventories an object store bucket laid out as
// {Artist}/{Book}/[Songs/]{File}.
type Remote struct {
	Bucket   objstore.Bucket
	Sidecars objstore.Sidecars
	// Workers bounds how many artist prefixes are listed at once.
	Workers int
	Logger  *slog.Logger
}

// NewRemote returns a scanner over bucket.
func NewRemote(bucket objstore.Bucket, sidecars objstore.Sidecars, workers int, logger *slog.Logger) *Remote {
	return &Remote{Bucket: bucket, Sidecars: sidecars, Workers: workers, Logger: logger}
}

func (r *Remote) Store() catalog.Store { return catalog.StoreRemote }

// Scan lists top-level prefixes, skips the sidecar namespaces, and lists
// each artist prefix recursively on its own worker.
func (r *Remote) Scan(ctx context.Context) (*catalog.Inventory, error) {
	logger := logging.NewComponentLogger(r.Logger, "scan").With(logging.String(logging.FieldStore, string(catalog.StoreRemote)))
	top, err := r.Bucket.List(ctx, "", false)
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", r.Bucket.Name(), err)
	}

	var (
		artists  []string
		warnings []string
	)
	for _, obj := range top {
		if !obj.IsPrefix {
			warnings = append(warnings, fmt.Sprintf("ignoring top-level object %s", obj.Key))
			continue
		}
		name := strings.TrimSuffix(obj.Key, "/")
		if r.Sidecars.Reserved(name) {
			continue
		}
		artists = append(artists, obj.Key)
	}

	workers := r.Workers
	if workers <= 0 {
		workers = 1
	}
	var (
		mu      sync.Mutex
		folders = make(map[string]*remoteFolder)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, prefix := range artists {
		g.Go(func() error {
			objs, err := r.Bucket.List(gctx, prefix, true)
			if err != nil {
				return fmt.Errorf("list prefix %s: %w", prefix, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, obj := range objs {
				if w := addObject(folders, obj); w != "" {
					warnings = append(warnings, w)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entities := make([]*catalog.Entity, 0, len(folders))
	for _, f := range folders {
		warnings = append(warnings, f.warnings...)
		entities = append(entities, f.entity())
	}
	sort.Strings(warnings)

	inv := catalog.NewInventory(catalog.StoreRemote, entities)
	for _, w := range warnings {
		inv.Warn(w)
		logging.WarnWithContext(logger, "remote scan anomaly", "scan_warning",
			logging.String("detail", w),
			logging.String(logging.FieldErrorHint, "keys must follow Artist/Book/[Songs/]file"),
			logging.String(logging.FieldImpact, "key excluded from the remote inventory"),
		)
	}
	logger.InfoContext(ctx, "remote inventory built",
		logging.String("bucket", r.Bucket.Name()),
		logging.Int("artist_prefixes", len(artists)),
		logging.Int("entities", inv.Len()),
		logging.Int("items", inv.ItemTotal()),
	)
	return inv, nil
}

type remoteFolder struct {
	artist, book string
	// objects keyed by filename; bare keys win over Songs keys.
	items    map[string]catalog.Item
	bare     map[string]bool
	prefixes map[string]struct{}
	warnings []string
}

func (f *remoteFolder) entity() *catalog.Entity {
	e := &catalog.Entity{
		Store:   catalog.StoreRemote,
		Artist:  f.artist,
		Title:   f.book,
		RawPath: catalog.FolderPath(f.artist, f.book),
		Items:   map[string]catalog.Item{},
	}
	for _, item := range f.items {
		e.AddItem(item)
	}
	for p := range f.prefixes {
		e.Prefixes = append(e.Prefixes, p)
	}
	sort.Strings(e.Prefixes)
	return e
}

// addObject splits key into artist, book, optional songs segment, and
// filename. It returns a warning for keys that do not fit the layout.
func addObject(folders map[string]*remoteFolder, obj objstore.Object) string {
	if obj.IsPrefix || strings.HasSuffix(obj.Key, "/") {
		return ""
	}
	segs := strings.Split(obj.Key, "/")
	if len(segs) < 3 {
		return fmt.Sprintf("key %s has no book folder", obj.Key)
	}
	artist, book, rest := segs[0], segs[1], segs[2:]
	prefix := artist + "/" + book + "/"
	bare := true
	if len(rest) >= 2 && objstore.IsSongsSegment(rest[0]) {
		prefix += rest[0] + "/"
		rest = rest[1:]
		bare = false
	}
	filename := strings.Join(rest, "/")
	if filename == "" {
		return ""
	}

	folderKey := artist + "/" + book
	f, ok := folders[folderKey]
	if !ok {
		f = &remoteFolder{
			artist:   artist,
			book:     book,
			items:    map[string]catalog.Item{},
			bare:     map[string]bool{},
			prefixes: map[string]struct{}{},
		}
		folders[folderKey] = f
	}
	f.prefixes[prefix] = struct{}{}
	if existing, dup := f.items[filename]; dup {
		f.warnings = append(f.warnings, fmt.Sprintf("duplicate file %s under %s and %s", filename, existing.Key, obj.Key))
		if f.bare[filename] || !bare {
			return ""
		}
	}
	f.items[filename] = catalog.Item{Filename: filename, SizeBytes: obj.Size, Key: obj.Key}
	f.bare[filename] = bare
	return ""
}
