package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func TestCopy_DefaultDirectory(t *testing.T) {
	dir := t.TempDir()
	archivePath := writeFixture(t, dir, "export.bacpac", []byte("archive bytes"))

	backupPath, err := Copy(archivePath, "")
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(backupPath))
	assert.True(t, strings.HasPrefix(filepath.Base(backupPath), "export.bacpac."))
	assert.True(t, strings.HasSuffix(backupPath, ".bak"))

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("archive bytes"), data)
}

func TestCopy_ExplicitDirectory(t *testing.T) {
	srcDir := t.TempDir()
	dstDir := t.TempDir()
	archivePath := writeFixture(t, srcDir, "export.bacpac", []byte("data"))

	backupPath, err := Copy(archivePath, dstDir)
	require.NoError(t, err)

	assert.Equal(t, dstDir, filepath.Dir(backupPath))
	_, err = os.Stat(backupPath)
	assert.NoError(t, err)
}

func TestCopy_NameCarriesContentHash(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a.bacpac", []byte("contents A"))
	b := writeFixture(t, dir, "b.bacpac", []byte("contents B"))

	backupA, err := Copy(a, "")
	require.NoError(t, err)
	backupB, err := Copy(b, "")
	require.NoError(t, err)

	// Same timestamp resolution, different content, different suffixes.
	suffixA := strings.TrimSuffix(backupA, ".bak")
	suffixB := strings.TrimSuffix(backupB, ".bak")
	assert.NotEqual(t, suffixA[len(suffixA)-8:], suffixB[len(suffixB)-8:])
}

func TestCopy_SourceMissing(t *testing.T) {
	backupPath, err := Copy(filepath.Join(t.TempDir(), "absent.bacpac"), "")
	assert.Error(t, err)
	assert.Empty(t, backupPath)
}

func TestCopy_DestinationDirMissing(t *testing.T) {
	dir := t.TempDir()
	archivePath := writeFixture(t, dir, "export.bacpac", []byte("data"))

	backupPath, err := Copy(archivePath, filepath.Join(dir, "no-such-dir"))
	assert.Error(t, err)
	assert.Empty(t, backupPath)
}
