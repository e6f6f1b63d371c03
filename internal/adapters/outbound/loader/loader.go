// Package loader reads the engine's inputs: the issue list produced by an
// external scanner and the project truthpack. Both may be YAML or JSON.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/abdidvp/patchgate/internal/domain"
	"gopkg.in/yaml.v3"
)

// ReadIssues decodes a list of issues, either as a bare list or wrapped as
// {issues: [...]}.
func ReadIssues(r io.Reader) ([]domain.Issue, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing issues: %w", err)
	}
	doc := &root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}

	var issues []domain.Issue
	switch doc.Kind {
	case yaml.SequenceNode:
		err = doc.Decode(&issues)
	case yaml.MappingNode:
		var wrapped struct {
			Issues []domain.Issue `yaml:"issues"`
		}
		err = doc.Decode(&wrapped)
		issues = wrapped.Issues
	default:
		return nil, errors.New("parsing issues: expected a list or an object with an issues key")
	}
	if err != nil {
		return nil, fmt.Errorf("parsing issues: %w", err)
	}

	for i := range issues {
		if issues[i].ID == "" {
			issues[i].ID = fmt.Sprintf("issue-%d", i+1)
		}
	}
	return issues, nil
}

// LoadIssues reads issues from a file.
func LoadIssues(path string) ([]domain.Issue, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	issues, err := ReadIssues(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return issues, nil
}

// LoadTruthpack reads a truthpack. A missing file yields nil: modules then
// decline whatever needs project facts.
func LoadTruthpack(path string) (*domain.Truthpack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var tp domain.Truthpack
	if err := yaml.Unmarshal(data, &tp); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &tp, nil
}
