package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"time"

	"shelfsync/internal/catalog"
)

// Status values recorded for ledger rows.
const (
	StatusPending   = "pending"
	StatusProcessed = "processed"
	StatusFailed    = "failed"
)

// IDLength is the number of hex characters kept from the URI digest.
const IDLength = 16

// Record is one ledger row.
type Record struct {
	ID        string    `json:"id"`
	Artist    string    `json:"artist"`
	Book      string    `json:"book"`
	Status    string    `json:"status"`
	ItemCount int       `json:"item_count"`
	SourceURI string    `json:"source_uri"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Folder returns the artist/book path the row points at.
func (r Record) Folder() string {
	return catalog.FolderPath(r.Artist, r.Book)
}

// Entity converts the row into a name-only catalog entity.
func (r Record) Entity() *catalog.Entity {
	return &catalog.Entity{
		Store:     catalog.StoreLedger,
		Artist:    r.Artist,
		Title:     r.Book,
		RawPath:   r.Folder(),
		ID:        r.ID,
		ItemCount: r.ItemCount,
		Status:    r.Status,
		SourceURI: r.SourceURI,
	}
}

// CanonicalURI returns the stable source URI for a local folder. Path
// segments are escaped so the digest does not depend on OS separators.
func CanonicalURI(artist, book string) string {
	segs := []string{strings.TrimSpace(artist), strings.TrimSpace(book)}
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return "catalog:///" + strings.Join(segs, "/")
}

// DeriveID returns the content-derived identifier for a source URI.
func DeriveID(sourceURI string) string {
	sum := sha256.Sum256([]byte(sourceURI))
	return hex.EncodeToString(sum[:])[:IDLength]
}

// NewRecord builds a pending record for a local folder with its derived id.
func NewRecord(artist, book string, itemCount int) Record {
	uri := CanonicalURI(artist, book)
	return Record{
		ID:        DeriveID(uri),
		Artist:    strings.TrimSpace(artist),
		Book:      strings.TrimSpace(book),
		Status:    StatusPending,
		ItemCount: itemCount,
		SourceURI: uri,
	}
}
