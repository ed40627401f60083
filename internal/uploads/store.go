// Package uploads keeps support attachments on local disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store writes attachments under a fixed directory as "<unix-millis>-<name>".
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates dir if it does not exist.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir returns the storage directory.
func (s *Store) Dir() string { return s.dir }

// Save copies r to a new file and returns its path.
func (s *Store) Save(original string, r io.Reader) (string, error) {
	name := strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + sanitize(original)
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		name = strconv.FormatInt(s.now().UnixMilli(), 10) + "-" + uuid.NewString()[:8] + "-" + sanitize(original)
		f, err = os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	}
	if err != nil {
		return "", fmt.Errorf("create attachment: %w", err)
	}
	path := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write attachment: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close attachment: %w", err)
	}
	return path, nil
}

// Remove deletes a stored attachment.
func (s *Store) Remove(path string) error {
	return os.Remove(path)
}

func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "attachment"
	}
	return name
}
