package gitinfo_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/gitinfo"
	"github.com/abdidvp/patchgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ domain.GitInfo = (*gitinfo.GitInfoAdapter)(nil)

func TestGitInfo_IsGitRepo_True(t *testing.T) {
	dir := t.TempDir()
	runGit(t, dir, "init")

	gi := gitinfo.New()
	assert.True(t, gi.IsGitRepo(dir))
}

func TestGitInfo_IsGitRepo_False(t *testing.T) {
	dir := t.TempDir()
	gi := gitinfo.New()
	assert.False(t, gi.IsGitRepo(dir))
}

func TestGitInfo_CommitHash_ReturnsHash(t *testing.T) {
	dir := committedRepo(t)

	gi := gitinfo.New()
	hash, err := gi.CommitHash(dir)
	require.NoError(t, err)
	assert.Len(t, hash, 40, "should be a full SHA-1 hash")
}

func TestGitInfo_CommitHash_NotGitRepo(t *testing.T) {
	dir := t.TempDir()
	gi := gitinfo.New()
	_, err := gi.CommitHash(dir)
	assert.Error(t, err)
}

func TestGitInfo_DirtyFiles(t *testing.T) {
	dir := committedRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("changed"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.js"), []byte("x"), 0644))

	gi := gitinfo.New()
	files, err := gi.DirtyFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt", "new.js"}, files)
}

func TestGitInfo_DirtyFiles_Clean(t *testing.T) {
	dir := committedRepo(t)

	files, err := gitinfo.New().DirtyFiles(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func committedRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "file.txt"), []byte("hello"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "init")
	return dir
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, string(out))
}
