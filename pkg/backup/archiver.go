package backup

import (
	"archive/zip"
	"bytes"
	"fmt"
	"time"
)

// Archive builds a zip file in memory. Callers add named entries and then
// take the finished bytes; nothing touches the filesystem.
type Archive struct {
	buf    bytes.Buffer
	writer *zip.Writer
}

func NewArchive() *Archive {
	a := &Archive{}
	a.writer = zip.NewWriter(&a.buf)
	return a
}

func (a *Archive) AddFile(name string, data []byte) error {
	entry, err := a.writer.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}

// Bytes finalizes the archive and returns its content. The archive cannot be
// written to afterwards.
func (a *Archive) Bytes() ([]byte, error) {
	if err := a.writer.Close(); err != nil {
		return nil, err
	}
	return a.buf.Bytes(), nil
}

// TimestampedName builds a backup file name like prefix_2025-01-02_15-04-05.zip.
func TimestampedName(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%s.zip", prefix, t.Format("2006-01-02_15-04-05"))
}
