package fsaccess

import (
	"fmt"
	"path"
	"sync"

	"github.com/abdidvp/patchgate/internal/domain"
)

// Memory is an in-memory domain.FileAccess that counts writes. It backs
// dry runs of externally supplied content and tests.
type Memory struct {
	mu     sync.Mutex
	files  map[string]string
	writes int
}

// NewMemory copies files into a new store.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{files: make(map[string]string, len(files))}
	for p, c := range files {
		m.files[path.Clean(p)] = c
	}
	return m
}

func (m *Memory) Read(p string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path.Clean(p)]
	if !ok {
		return "", fmt.Errorf("%s: %w", p, domain.ErrFileNotFound)
	}
	return c, nil
}

func (m *Memory) Write(p, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path.Clean(p)] = content
	m.writes++
	return nil
}

// Writes returns how many times Write was called.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// File returns the current content of p.
func (m *Memory) File(p string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.files[path.Clean(p)]
	return c, ok
}
