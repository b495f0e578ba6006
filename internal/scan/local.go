package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"shelfsync/internal/catalog"
	"shelfsync/internal/logging"
	"shelfsync/internal/objstore"
)

// Local inventories a two-level Artist/Book directory tree.
type Local struct {
	Root   string
	Logger *slog.Logger
}

// NewLocal returns a scanner rooted at root.
func NewLocal(root string, logger *slog.Logger) *Local {
	return &Local{Root: root, Logger: logger}
}

func (l *Local) Store() catalog.Store { return catalog.StoreLocal }

// Scan produces one entity per Book folder. Files inside an optional Songs
// subfolder belong to the book; other nested directories and stray files
// at the artist level are reported as warnings.
func (l *Local) Scan(ctx context.Context) (*catalog.Inventory, error) {
	logger := logging.NewComponentLogger(l.Logger, "scan").With(logging.String(logging.FieldStore, string(catalog.StoreLocal)))
	artists, err := os.ReadDir(l.Root)
	if err != nil {
		return nil, fmt.Errorf("read local root %s: %w", l.Root, err)
	}

	var (
		entities []*catalog.Entity
		warnings []string
	)
	for _, artist := range artists {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if hidden(artist.Name()) {
			continue
		}
		if !artist.IsDir() {
			warnings = append(warnings, fmt.Sprintf("ignoring file at artist level: %s", artist.Name()))
			continue
		}
		artistDir := filepath.Join(l.Root, artist.Name())
		books, err := os.ReadDir(artistDir)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("unreadable artist folder %s: %v", artist.Name(), err))
			continue
		}
		for _, book := range books {
			if hidden(book.Name()) {
				continue
			}
			if !book.IsDir() {
				warnings = append(warnings, fmt.Sprintf("ignoring file at book level: %s/%s", artist.Name(), book.Name()))
				continue
			}
			e, bookWarnings := l.scanBook(artist.Name(), book.Name())
			warnings = append(warnings, bookWarnings...)
			entities = append(entities, e)
		}
	}

	inv := catalog.NewInventory(catalog.StoreLocal, entities)
	for _, w := range warnings {
		inv.Warn(w)
		logging.WarnWithContext(logger, "local scan anomaly", "scan_warning",
			logging.String("detail", w),
			logging.String(logging.FieldErrorHint, "move or remove the path so it follows Artist/Book/file"),
			logging.String(logging.FieldImpact, "path excluded from the local inventory"),
		)
	}
	logger.InfoContext(ctx, "local inventory built",
		logging.Int("entities", inv.Len()),
		logging.Int("items", inv.ItemTotal()),
		logging.Int("warnings", len(inv.Warnings)),
	)
	return inv, nil
}

func (l *Local) scanBook(artist, book string) (*catalog.Entity, []string) {
	rel := path.Join(artist, book)
	e := &catalog.Entity{
		Store:   catalog.StoreLocal,
		Artist:  artist,
		Title:   book,
		RawPath: rel,
		Items:   map[string]catalog.Item{},
	}
	var warnings []string
	dir := filepath.Join(l.Root, artist, book)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return e, []string{fmt.Sprintf("unreadable book folder %s: %v", rel, err)}
	}
	for _, entry := range entries {
		name := entry.Name()
		if hidden(name) {
			continue
		}
		if entry.IsDir() {
			if objstore.IsSongsSegment(name) {
				warnings = append(warnings, l.addSongs(e, rel, name)...)
				continue
			}
			warnings = append(warnings, fmt.Sprintf("ignoring nested folder %s/%s", rel, name))
			continue
		}
		if w := addFile(e, path.Join(rel, name), name, entry); w != "" {
			warnings = append(warnings, w)
		}
	}
	return e, warnings
}

func (l *Local) addSongs(e *catalog.Entity, rel, sub string) []string {
	var warnings []string
	entries, err := os.ReadDir(filepath.Join(l.Root, filepath.FromSlash(rel), sub))
	if err != nil {
		return []string{fmt.Sprintf("unreadable songs folder %s/%s: %v", rel, sub, err)}
	}
	for _, entry := range entries {
		if hidden(entry.Name()) || entry.IsDir() {
			continue
		}
		if _, dup := e.Items[entry.Name()]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate file %s in %s and %s/%s", entry.Name(), rel, rel, sub))
			continue
		}
		if w := addFile(e, path.Join(rel, sub, entry.Name()), entry.Name(), entry); w != "" {
			warnings = append(warnings, w)
		}
	}
	return warnings
}

func addFile(e *catalog.Entity, key, name string, entry os.DirEntry) string {
	info, err := entry.Info()
	if err != nil {
		return fmt.Sprintf("unreadable file %s: %v", key, err)
	}
	e.AddItem(catalog.Item{Filename: name, SizeBytes: info.Size(), Key: key})
	return ""
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
