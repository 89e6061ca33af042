package storage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/moritama/project-board-api/internal/constants"
)

// Store persists attachment bytes and returns the public path the task record
// keeps as metadata. Remove must be idempotent: deleting a path that no longer
// exists is a success.
type Store interface {
	Save(originalName string, src io.Reader) (string, error)
	Remove(path string) error
}

// DiskStore writes attachments under a local upload directory and serves them
// via the /uploads/attachments/ static route.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save stores the file under a generated name and returns its public path.
// The original name is kept as a suffix so downloads stay recognizable.
func (s *DiskStore) Save(originalName string, src io.Reader) (string, error) {
	name := uuid.NewString() + "-" + sanitizeName(originalName)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	return constants.AttachmentURLPrefix + name, nil
}

// Remove deletes the stored object behind a public path. A missing file is
// treated as already removed.
func (s *DiskStore) Remove(path string) error {
	name := strings.TrimPrefix(path, constants.AttachmentURLPrefix)
	if name == path || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid attachment path %q", path)
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func sanitizeName(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "attachment"
	}
	return name
}
