package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ImageStore keeps uploaded and generated images on local disk and maps them
// to public /media URLs.
type ImageStore struct {
	dir          string
	publicPrefix string
}

// NewImageStore creates the media directory if needed. publicPrefix is the URL
// prefix the files are served under, e.g. "/media".
func NewImageStore(dir, publicPrefix string) (*ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &ImageStore{dir: dir, publicPrefix: strings.TrimSuffix(publicPrefix, "/")}, nil
}

// Dir returns the on-disk media root.
func (s *ImageStore) Dir() string { return s.dir }

// Save writes the content under a collision-free name derived from the given
// base name and returns the public URL path.
func (s *ImageStore) Save(baseName string, r io.Reader) (string, error) {
	name := uniqueName(baseName)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return s.publicPrefix + "/" + name, nil
}

// Open resolves a public URL path back to the stored file. Paths outside the
// media prefix are rejected.
func (s *ImageStore) Open(publicPath string) (io.ReadCloser, error) {
	name, ok := strings.CutPrefix(publicPath, s.publicPrefix+"/")
	if !ok {
		return nil, fmt.Errorf("not a media path: %s", publicPath)
	}
	name = filepath.Base(name)
	return os.Open(filepath.Join(s.dir, name))
}

func uniqueName(baseName string) string {
	frag := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	base := filepath.Base(baseName)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		stem = "image"
	}
	if ext == "" {
		ext = ".png"
	}
	return fmt.Sprintf("%s_%s%s", stem, frag, ext)
}
