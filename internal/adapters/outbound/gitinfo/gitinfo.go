package gitinfo

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// GitInfoAdapter implements domain.GitInfo using go-git.
type GitInfoAdapter struct{}

func New() *GitInfoAdapter {
	return &GitInfoAdapter{}
}

func (g *GitInfoAdapter) IsGitRepo(projectPath string) bool {
	_, err := open(projectPath)
	return err == nil
}

func (g *GitInfoAdapter) CommitHash(projectPath string) (string, error) {
	repo, err := open(projectPath)
	if err != nil {
		return "", fmt.Errorf("opening git repo: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD: %w", err)
	}

	return head.Hash().String(), nil
}

// DirtyFiles lists paths, relative to projectPath, that differ from HEAD in
// the index or the worktree. Untracked files are included.
func (g *GitInfoAdapter) DirtyFiles(projectPath string) ([]string, error) {
	repo, err := open(projectPath)
	if err != nil {
		return nil, fmt.Errorf("opening git repo: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("opening worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("reading status: %w", err)
	}

	prefix := ""
	if abs, err := filepath.Abs(projectPath); err == nil {
		if rel, err := filepath.Rel(wt.Filesystem.Root(), abs); err == nil && rel != "." {
			prefix = filepath.ToSlash(rel) + "/"
		}
	}

	var files []string
	for path, s := range status {
		if s.Staging == git.Unmodified && s.Worktree == git.Unmodified {
			continue
		}
		if strings.HasPrefix(path, prefix) {
			files = append(files, strings.TrimPrefix(path, prefix))
		}
	}
	sort.Strings(files)
	return files, nil
}

func open(projectPath string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(projectPath, &git.PlainOpenOptions{DetectDotGit: true})
}
