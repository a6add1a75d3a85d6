package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestReadFileLimited_ReadsNormalFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "a.json", "{}")
	data, err := readFileLimited(path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestReadFileLimited_RejectsDirectories(t *testing.T) {
	_, err := readFileLimited(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-regular file")
}

func TestReadFileLimited_RejectsDeviceFiles(t *testing.T) {
	_, err := readFileLimited("/dev/null")
	if err != nil {
		assert.Contains(t, err.Error(), "regular file")
	}
}

func TestVerifyPolicyDirectory_CleanDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	writeFile(t, dir, "Storage/a.json", "{}")
	require.NoError(t, os.Chmod(filepath.Join(dir, "Storage"), 0o755))

	assert.Empty(t, VerifyPolicyDirectory(dir))
}

func TestVerifyPolicyDirectory_NonExistent(t *testing.T) {
	warnings := VerifyPolicyDirectory("/nonexistent/path/12345")
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "cannot stat")
}

func TestVerifyPolicyDirectory_WritableDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o777))

	warnings := VerifyPolicyDirectory(dir)
	assert.True(t, hasWarning(warnings, "world-writable"), "got: %v", warnings)
	assert.True(t, hasWarning(warnings, "group-writable"), "got: %v", warnings)
}

func TestVerifyPolicyDirectory_WorldWritableDocument(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	path := writeFile(t, dir, "a.json", "{}")
	require.NoError(t, os.Chmod(path, 0o666))

	warnings := VerifyPolicyDirectory(dir)
	assert.True(t, hasWarning(warnings, "policy file"), "got: %v", warnings)
}

func TestVerifyPolicyDirectory_SymlinkOutside(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Chmod(dir, 0o755))
	target := writeFile(t, t.TempDir(), "evil.json", "{}")
	require.NoError(t, os.Symlink(target, filepath.Join(dir, "link.json")))

	warnings := VerifyPolicyDirectory(dir)
	assert.True(t, hasWarning(warnings, "points outside policy directory"), "got: %v", warnings)
}

func TestReadFileLimited_ResolvesRelativeParentPath(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "values.yaml", "a: 1\n")
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	t.Chdir(sub)

	data, err := readFileLimited(filepath.Join("..", "values.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "a: 1\n", string(data))

	_, err = readFileLimited(filepath.Join("..", "absent.yaml"))
	assert.ErrorContains(t, err, "file not found")
}
