package cmd

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBrotliTar(t *testing.T) {
	buf := bytes.Buffer{}
	comp := brotli.NewWriter(&buf)
	archive := tar.NewWriter(comp)

	content := []byte("tool payload")
	require.NoError(t, archive.WriteHeader(&tar.Header{
		Name:     "pkg/tool.txt",
		Typeflag: tar.TypeReg,
		Mode:     0660,
		Size:     int64(len(content)),
	}))
	_, err := archive.Write(content)
	require.NoError(t, err)
	require.NoError(t, archive.Close())
	require.NoError(t, comp.Close())

	dest := t.TempDir()
	err = extractTar(tar.NewReader(brotli.NewReader(&buf)), dest, 1)
	require.NoError(t, err)

	extracted, err := os.ReadFile(filepath.Join(dest, "tool.txt"))
	require.NoError(t, err)
	assert.Equal(t, content, extracted)
}
