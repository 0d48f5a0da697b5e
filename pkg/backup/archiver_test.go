package backup

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArchiveRoundTrip(t *testing.T) {
	archive := NewArchive()
	require.NoError(t, archive.AddFile("a.json", []byte(`{"ok":true}`)))
	require.NoError(t, archive.AddFile("notes/info.txt", []byte("hello")))

	content, err := archive.Bytes()
	require.NoError(t, err)

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	require.Len(t, reader.File, 2)

	got := make(map[string]string)
	for _, f := range reader.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		got[f.Name] = string(data)
	}
	assert.Equal(t, `{"ok":true}`, got["a.json"])
	assert.Equal(t, "hello", got["notes/info.txt"])
}

func TestTimestampedName(t *testing.T) {
	at := time.Date(2025, 3, 9, 21, 5, 7, 0, time.UTC)
	assert.Equal(t, "backup_2025-03-09_21-05-07.zip", TimestampedName("backup", at))
}
