package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Files abstracts the uploads filesystem so tests can run against a fake.
type Files interface {
	Exists(path string) bool
	Copy(src, dst string) error
	Remove(path string) error
}

type osFiles struct{}

// NewOSFiles returns a Files implementation backed by the local filesystem.
func NewOSFiles() Files {
	return osFiles{}
}

func (osFiles) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func (osFiles) Copy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("mkdir target: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy bytes: %w", err)
	}
	return out.Sync()
}

func (osFiles) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// PathFor resolves an attachment's relative path inside a tenant's uploads
// subtree: <root>/sites/<tenantID>/<filePath>.
func PathFor(root string, tenantID int64, filePath string) string {
	return filepath.Join(root, "sites", strconv.FormatInt(tenantID, 10), filepath.FromSlash(filePath))
}
