package objstore

import (
	"context"
	"path"
	"strings"

	"shelfsync/internal/fault"
)

// SongsSegments are the optional subfolder names a producer may insert
// between a book folder and its files.
var SongsSegments = []string{"Songs", "songs"}

// IsSongsSegment reports whether a key segment is the optional subfolder.
func IsSongsSegment(segment string) bool {
	return strings.EqualFold(segment, "songs")
}

// FolderPrefixes returns the prefixes a logical folder's files may live
// under, in probe order: bare, then each Songs spelling.
func FolderPrefixes(folder string) []string {
	folder = strings.Trim(folder, "/")
	out := []string{folder + "/"}
	for _, seg := range SongsSegments {
		out = append(out, folder+"/"+seg+"/")
	}
	return out
}

// ResolveKey probes every known prefix convention for filename under folder
// and returns the first key that exists. It returns fault.ErrNotFound only
// after all conventions were checked.
func ResolveKey(ctx context.Context, b Bucket, folder, filename string) (string, error) {
	for _, prefix := range FolderPrefixes(folder) {
		key := prefix + filename
		ok, err := b.Exists(ctx, key)
		if err != nil {
			return "", err
		}
		if ok {
			return key, nil
		}
	}
	return "", fault.Wrap(fault.ErrNotFound, "objstore", "resolve", path.Join(folder, filename), nil)
}

// Sidecars names the metadata namespaces consulted for presence.
type Sidecars struct {
	ArtifactsPrefix string
	OutputPrefix    string
}

// DefaultSidecars returns the standard artifacts/ and output/ namespaces.
func DefaultSidecars() Sidecars {
	return Sidecars{ArtifactsPrefix: "artifacts", OutputPrefix: "output"}
}

// Reserved reports whether a top-level key segment belongs to a sidecar
// namespace rather than the catalog.
func (s Sidecars) Reserved(segment string) bool {
	return segment == s.ArtifactsPrefix || segment == s.OutputPrefix
}

// HasMetadata reports whether sidecar metadata exists for id: either
// output/{id}/manifest.json or any .json object under artifacts/{id}/.
// Only existence is checked.
func (s Sidecars) HasMetadata(ctx context.Context, b Bucket, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	ok, err := b.Exists(ctx, path.Join(s.OutputPrefix, id, "manifest.json"))
	if err != nil || ok {
		return ok, err
	}
	objs, err := b.List(ctx, s.ArtifactsPrefix+"/"+id+"/", true)
	if err != nil {
		if fault.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	for _, obj := range objs {
		if strings.HasSuffix(strings.ToLower(obj.Key), ".json") {
			return true, nil
		}
	}
	return false, nil
}
