package fsaccess

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/abdidvp/patchgate/internal/domain"
)

// OS implements domain.FileAccess on the local filesystem. Every path is
// resolved against the project root and may not leave it.
type OS struct {
	root string
}

func New(root string) (*OS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &OS{root: abs}, nil
}

// Root returns the absolute project root.
func (o *OS) Root() string { return o.root }

func (o *OS) Read(path string) (string, error) {
	fp, err := o.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%s: %w", path, domain.ErrFileNotFound)
		}
		return "", err
	}
	return string(data), nil
}

// Write replaces the file's content, keeping its permissions. Missing parent
// directories are created.
func (o *OS) Write(path, content string) error {
	fp, err := o.resolve(path)
	if err != nil {
		return err
	}

	perm := os.FileMode(0644)
	if info, err := os.Stat(fp); err == nil {
		perm = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(fp), 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(fp), "."+filepath.Base(fp)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fp)
}

func (o *OS) resolve(path string) (string, error) {
	fp := path
	if !filepath.IsAbs(fp) {
		fp = filepath.Join(o.root, filepath.FromSlash(path))
	}
	fp = filepath.Clean(fp)
	rel, err := filepath.Rel(o.root, fp)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", path, domain.ErrPathOutsideRoot)
	}
	return fp, nil
}
