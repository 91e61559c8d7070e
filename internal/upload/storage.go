// Package upload stores attachment blobs on disk. Blob writes and ticket
// record writes are independent; an orphaned file after a failed record
// write is an accepted failure mode, not a two-phase commit.
package upload

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// BlobStore saves uploaded files under a single directory and hands back
// relative references for the ticket record.
type BlobStore struct {
	dir          string
	publicPrefix string
	now          func() time.Time
}

// NewBlobStore builds a store rooted at dir. References resolve publicly
// under publicPrefix.
func NewBlobStore(dir, publicPrefix string) *BlobStore {
	return &BlobStore{dir: dir, publicPrefix: strings.TrimSuffix(publicPrefix, "/"), now: time.Now}
}

// Save writes the blob to disk under a collision-safe name and returns the
// stored reference (file name relative to the uploads directory).
func (b *BlobStore) Save(originalName string, r io.Reader) (string, error) {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	name := b.storedName(originalName)
	f, err := os.OpenFile(filepath.Join(b.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	for seq := 1; os.IsExist(err); seq++ {
		// same millisecond, same name: disambiguate with a counter
		name = strconv.Itoa(seq) + "-" + b.storedName(originalName)
		f, err = os.OpenFile(filepath.Join(b.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create upload %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close upload %s: %w", name, err)
	}
	return name, nil
}

// PublicPath maps a stored reference to its public URL path.
func (b *BlobStore) PublicPath(ref string) string {
	return b.publicPrefix + "/" + ref
}

// Dir exposes the backing directory for static file serving.
func (b *BlobStore) Dir() string {
	return b.dir
}

// storedName prefixes the upload timestamp and normalizes whitespace so
// concurrent uploads of equally named files cannot collide on disk.
func (b *BlobStore) storedName(originalName string) string {
	base := filepath.Base(strings.TrimSpace(originalName))
	if base == "." || base == string(filepath.Separator) || base == "" {
		base = "file"
	}
	base = strings.Join(strings.Fields(base), "_")
	return strconv.FormatInt(b.now().UnixMilli(), 10) + "-" + base
}
