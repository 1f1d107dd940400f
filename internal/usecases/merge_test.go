package usecases

import (
	"archive/zip"
	"bytes"
	"io"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course-share/internal/domain"
)

// buildZip builds a zip archive with the given entries in deterministic order.
func buildZip(t *testing.T, entries map[string]string) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(entries[name]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

// readZip reads an archive back into a name -> content map and fails the
// test if any entry name occurs more than once.
func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()

	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	entries := make(map[string]string, len(r.File))
	for _, f := range r.File {
		_, duplicate := entries[f.Name]
		require.False(t, duplicate, "duplicate entry %q in archive", f.Name)

		rc, openErr := f.Open()
		require.NoError(t, openErr)
		content, readErr := io.ReadAll(rc)
		require.NoError(t, readErr)
		require.NoError(t, rc.Close())

		entries[f.Name] = string(content)
	}

	return entries
}

func TestMergeArchives(t *testing.T) {
	t.Run("disjoint entry sets produce the union", func(t *testing.T) {
		base := buildZip(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
		overlay := buildZip(t, map[string]string{"c.txt": "gamma"})

		merged, err := MergeArchives(base, overlay)
		require.NoError(t, err)

		assert.Equal(t, map[string]string{
			"a.txt": "alpha",
			"b.txt": "beta",
			"c.txt": "gamma",
		}, readZip(t, merged))
	})

	t.Run("overlay wins on name collision", func(t *testing.T) {
		base := buildZip(t, map[string]string{"a.txt": "old", "keep.txt": "kept"})
		overlay := buildZip(t, map[string]string{"a.txt": "new", "b.txt": "added"})

		merged, err := MergeArchives(base, overlay)
		require.NoError(t, err)

		assert.Equal(t, map[string]string{
			"a.txt":    "new",
			"keep.txt": "kept",
			"b.txt":    "added",
		}, readZip(t, merged))
	})

	t.Run("merge with itself is content equivalent", func(t *testing.T) {
		archive := buildZip(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})

		merged, err := MergeArchives(archive, archive)
		require.NoError(t, err)

		assert.Equal(t, readZip(t, archive), readZip(t, merged))
	})

	t.Run("entry metadata is preserved", func(t *testing.T) {
		base := buildZip(t, map[string]string{"a.txt": "alpha"})
		overlay := buildZip(t, map[string]string{"b.txt": "beta"})

		merged, err := MergeArchives(base, overlay)
		require.NoError(t, err)

		baseReader, err := zip.NewReader(bytes.NewReader(base), int64(len(base)))
		require.NoError(t, err)
		mergedReader, err := zip.NewReader(bytes.NewReader(merged), int64(len(merged)))
		require.NoError(t, err)

		require.Len(t, mergedReader.File, 2)
		assert.Equal(t, baseReader.File[0].Method, mergedReader.File[0].Method)
		assert.Equal(t, baseReader.File[0].CRC32, mergedReader.File[0].CRC32)
		assert.Equal(t, baseReader.File[0].Modified.Unix(), mergedReader.File[0].Modified.Unix())
	})

	t.Run("corrupt base is rejected", func(t *testing.T) {
		overlay := buildZip(t, map[string]string{"a.txt": "alpha"})

		_, err := MergeArchives([]byte("not a zip"), overlay)
		assert.ErrorIs(t, err, domain.ErrCorruptArchive)
	})

	t.Run("corrupt overlay is rejected", func(t *testing.T) {
		base := buildZip(t, map[string]string{"a.txt": "alpha"})

		_, err := MergeArchives(base, []byte("not a zip"))
		assert.ErrorIs(t, err, domain.ErrCorruptArchive)
	})
}

func TestVerifyArchive(t *testing.T) {
	t.Run("well-formed archive passes", func(t *testing.T) {
		archive := buildZip(t, map[string]string{"a.txt": "alpha", "b.txt": "beta"})
		assert.NoError(t, VerifyArchive(archive))
	})

	t.Run("garbage payload fails", func(t *testing.T) {
		err := VerifyArchive([]byte("garbage"))
		assert.ErrorIs(t, err, domain.ErrCorruptArchive)
	})

	t.Run("CRC mismatch fails", func(t *testing.T) {
		// raw entry with a deliberately wrong checksum.
		var buf bytes.Buffer
		w := zip.NewWriter(&buf)
		header := &zip.FileHeader{
			Name:               "a.txt",
			Method:             zip.Store,
			CRC32:              0xdeadbeef,
			CompressedSize64:   5,
			UncompressedSize64: 5,
		}
		entry, err := w.CreateRaw(header)
		require.NoError(t, err)
		_, err = entry.Write([]byte("hello"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		verifyErr := VerifyArchive(buf.Bytes())
		assert.ErrorIs(t, verifyErr, domain.ErrCorruptArchive)
	})
}
