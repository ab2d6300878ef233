// Package photos attaches images to inspections. Metadata lives in the
// store; the byte stream lives behind the Storage interface so the core
// never touches a filesystem or bucket API directly.
package photos

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Stored describes a persisted byte stream.
type Stored struct {
	Key       string
	URL       string
	SizeBytes int64
}

// Storage persists photo byte streams keyed by an opaque storage key.
type Storage interface {
	Save(ctx context.Context, inspectionID, filename string, r io.Reader) (*Stored, error)
}

// imageExts are the file extensions carried through to the storage key.
// Anything else is stored as .bin so client-supplied names cannot smuggle
// surprising suffixes onto disk.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".heic": true,
}

// DiskStorage writes photos under a local directory, one subdirectory per
// inspection. URLs are served relative to baseURL under /uploads/.
type DiskStorage struct {
	root    string
	baseURL string
}

func NewDiskStorage(root, baseURL string) *DiskStorage {
	return &DiskStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (d *DiskStorage) Save(_ context.Context, inspectionID, filename string, r io.Reader) (*Stored, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExts[ext] {
		ext = ".bin"
	}
	key := inspectionID + "/" + uuid.NewString() + ext

	dir := filepath.Join(d.root, inspectionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photo dir: %w", err)
	}
	f, err := os.Create(filepath.Join(d.root, filepath.FromSlash(key)))
	if err != nil {
		return nil, fmt.Errorf("create photo file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("write photo: %w", err)
	}
	return &Stored{Key: key, URL: d.baseURL + "/uploads/" + key, SizeBytes: size}, nil
}
