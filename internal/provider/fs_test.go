package provider

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSProvider_ListDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("bb"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "a"), 0755))
	if runtime.GOOS != "windows" {
		require.NoError(t, os.Symlink("b.txt", filepath.Join(dir, "c")))
	}

	p := NewFSProvider(dir)
	files, err := p.ListDir(dir)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(files), 2)
	assert.Equal(t, "a", files[0].Name)
	assert.True(t, files[0].IsDir())
	assert.Equal(t, "b.txt", files[1].Name)
	assert.Equal(t, "file", files[1].Type)
	assert.Equal(t, int64(2), files[1].Size)
	assert.Equal(t, filepath.Join(dir, "b.txt"), files[1].Path)
	if runtime.GOOS != "windows" {
		require.Len(t, files, 3)
		assert.Equal(t, "symlink", files[2].Type)
	}

	_, err = p.ListDir(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestFSProvider_RelAndReadFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "x", "y"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x", "y", "z.txt"), []byte("z"), 0644))

	p := NewFSProvider(dir)
	assert.Equal(t, "", p.Rel(dir))
	assert.Equal(t, "x/y/z.txt", p.Rel(filepath.Join(dir, "x", "y", "z.txt")))
	assert.Equal(t, "x/y", p.Rel("x/y"))
	assert.Equal(t, dir, p.GetBasePath())

	data, err := p.ReadFile("x/y/z.txt")
	require.NoError(t, err)
	assert.Equal(t, "z", string(data))
}
