package fsaccess_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdidvp/patchgate/internal/adapters/outbound/fsaccess"
	"github.com/abdidvp/patchgate/internal/domain"
)

var (
	_ domain.FileAccess = (*fsaccess.OS)(nil)
	_ domain.FileAccess = (*fsaccess.Memory)(nil)
)

func TestOS_ReadWrite(t *testing.T) {
	dir := t.TempDir()
	fa, err := fsaccess.New(dir)
	require.NoError(t, err)

	require.NoError(t, fa.Write("src/a.js", "const a = 1;\n"))
	got, err := fa.Read("src/a.js")
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\n", got)

	data, err := os.ReadFile(filepath.Join(dir, "src", "a.js"))
	require.NoError(t, err)
	assert.Equal(t, "const a = 1;\n", string(data))
}

func TestOS_KeepsPermissions(t *testing.T) {
	dir := t.TempDir()
	fp := filepath.Join(dir, "run.sh")
	require.NoError(t, os.WriteFile(fp, []byte("#!/bin/sh\n"), 0755))

	fa, err := fsaccess.New(dir)
	require.NoError(t, err)
	require.NoError(t, fa.Write("run.sh", "#!/bin/sh\necho hi\n"))

	info, err := os.Stat(fp)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestOS_MissingFile(t *testing.T) {
	fa, err := fsaccess.New(t.TempDir())
	require.NoError(t, err)

	_, err = fa.Read("nope.js")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestOS_RejectsEscapingPaths(t *testing.T) {
	fa, err := fsaccess.New(t.TempDir())
	require.NoError(t, err)

	_, err = fa.Read("../outside.js")
	assert.ErrorIs(t, err, domain.ErrPathOutsideRoot)
	assert.ErrorIs(t, fa.Write("a/../../x.js", "x"), domain.ErrPathOutsideRoot)
	_, err = fa.Read("/etc/passwd")
	assert.ErrorIs(t, err, domain.ErrPathOutsideRoot)
}

func TestMemory_CountsWrites(t *testing.T) {
	m := fsaccess.NewMemory(map[string]string{"a.js": "x"})

	got, err := m.Read("./a.js")
	require.NoError(t, err)
	assert.Equal(t, "x", got)

	_, err = m.Read("b.js")
	assert.ErrorIs(t, err, domain.ErrFileNotFound)

	require.NoError(t, m.Write("b.js", "y"))
	assert.Equal(t, 1, m.Writes())
	c, ok := m.File("b.js")
	assert.True(t, ok)
	assert.Equal(t, "y", c)
}
