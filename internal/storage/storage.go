package storage

import (
	"io"
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Disk is a public file store rooted at a directory. Uploaded files
// land under "<prefix>/<random>/<filename>" so a delete can remove the
// whole per-upload directory, mirroring how image replacement works.
type Disk struct {
	Root    string
	BaseURL string
}

// NewDisk creates the root directory if needed and returns the disk.
func NewDisk(root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Disk{Root: root, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes r under a fresh random directory below prefix and
// returns the storage-relative path (e.g. "task/ab12cd34/img.jpg").
func (d *Disk) Save(r io.Reader, prefix, filename string) (string, error) {
	rel := path.Join(prefix, randomSegment(), sanitizeFilename(filename))
	full := filepath.Join(d.Root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return rel, nil
}

// Delete removes a single stored file. Best-effort: failures are
// logged, not returned, since a dangling file must not fail the
// surrounding database operation.
func (d *Disk) Delete(rel string) {
	if rel == "" {
		return
	}
	if err := os.Remove(filepath.Join(d.Root, filepath.FromSlash(rel))); err != nil && !os.IsNotExist(err) {
		log.Printf("storage: delete %s: %v", rel, err)
	}
}

// DeleteDir removes the directory containing the stored file, so the
// per-upload directory goes away with it. Best-effort like Delete.
func (d *Disk) DeleteDir(rel string) {
	if rel == "" {
		return
	}
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return
	}
	if err := os.RemoveAll(filepath.Join(d.Root, filepath.FromSlash(dir))); err != nil {
		log.Printf("storage: delete dir %s: %v", dir, err)
	}
}

// Exists reports whether a stored file is present on disk.
func (d *Disk) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(d.Root, filepath.FromSlash(rel)))
	return err == nil
}

// URL maps a storage-relative path to its public URL. Empty paths map
// to "" so clients can render a missing image without null checks.
func (d *Disk) URL(rel string) string {
	if rel == "" {
		return ""
	}
	return d.BaseURL + "/" + rel
}

func randomSegment() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func sanitizeFilename(name string) string {
	name = path.Base(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
