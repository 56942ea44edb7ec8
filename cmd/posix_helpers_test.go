package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMvRenameToNewName(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "old.txt")
	dest := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(src, []byte("content"), 0660))

	err := mvCmd.RunE(mvCmd, []string{src, dest})
	require.NoError(t, err)

	content, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "content", string(content))

	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}

func TestMvIntoDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "file.txt")
	destDir := filepath.Join(root, "sub")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0660))
	require.NoError(t, os.Mkdir(destDir, 0770))

	err := mvCmd.RunE(mvCmd, []string{src, destDir})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(destDir, "file.txt"))
	assert.NoError(t, err)
}

func TestMvMultipleToMissingDestFails(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"a.txt", "b.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte("x"), 0660))
	}

	err := mvCmd.RunE(mvCmd, []string{
		filepath.Join(root, "a.txt"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "missing"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}
