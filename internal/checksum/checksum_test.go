package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculator_Compute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	c, err := NewCalculator(16)
	require.NoError(t, err)

	d, err := c.Compute(path)
	require.NoError(t, err)
	assert.Equal(t, "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824", d.SHA256)
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", d.SHA1)
	assert.Equal(t, 1, c.Len())

	again, err := c.Compute(path)
	require.NoError(t, err)
	assert.Equal(t, d, again)
	assert.Equal(t, 1, c.Len(), "second call should be served from cache")
}

func TestCalculator_Errors(t *testing.T) {
	c, err := NewCalculator(0)
	require.NoError(t, err)

	_, err = c.Compute(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	_, err = c.Compute(t.TempDir())
	assert.Error(t, err)
}

func TestComputeReader_Empty(t *testing.T) {
	d, err := ComputeReader(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", d.SHA256)
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", d.SHA1)
}
