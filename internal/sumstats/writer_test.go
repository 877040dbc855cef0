package sumstats

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_AtomicRename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w, err := NewWriter(path)
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader([]string{"CHR", "POS"}))
	require.NoError(t, w.WriteRecord([]string{"1", "100"}))

	// Nothing at the target path until Close succeeds.
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "target must not exist before Close")
	_, err = os.Stat(path + ".tmp")
	assert.NoError(t, err, "temp file holds the in-progress output")

	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "CHR\tPOS\n1\t100\n", string(data))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file renamed away")

	assert.Equal(t, 1, w.Rows())
}

func TestWriter_AbortLeavesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteRecord([]string{"1", "100"}))

	w.Abort()

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestWriter_GzipOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt.gz")

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader([]string{"CHR", "POS"}))
	require.NoError(t, w.WriteRecord([]string{"X", "42"}))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "X\t42", lines[1])
}
