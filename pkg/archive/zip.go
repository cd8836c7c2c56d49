package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
)

const (
	maxFileSize  = 100 * 1024 * 1024  // 100 MB per entry
	maxTotalSize = 1024 * 1024 * 1024 // 1 GB total read
	maxFileCount = 50000              // maximum number of entries in archive
)

// Limits bounds how much of an archive is read into memory.
type Limits struct {
	MaxFileSize  int64
	MaxTotalSize int64
	MaxFileCount int
}

// DefaultLimits returns the limits applied by ReadZip.
func DefaultLimits() Limits {
	return Limits{MaxFileSize: maxFileSize, MaxTotalSize: maxTotalSize, MaxFileCount: maxFileCount}
}

// Entry is one regular file read from an archive.
type Entry struct {
	Name string
	Data []byte
}

// ReadZip reads every regular file of a zip archive into memory using the default limits.
func ReadZip(data []byte) ([]Entry, error) {
	return ReadZipWithLimits(data, DefaultLimits())
}

// ReadZipWithLimits reads every regular file of a zip archive into memory.
// Entries are returned sorted by name. Directories and symlinks are skipped.
// Entry names that escape the archive root are rejected. Size limits guard
// against zip bombs.
func ReadZipWithLimits(data []byte, limits Limits) ([]Entry, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if errors.Is(err, zip.ErrInsecurePath) {
		return nil, fmt.Errorf("zip entry attempts path traversal: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	if len(reader.File) > limits.MaxFileCount {
		return nil, fmt.Errorf("zip archive contains %d files, exceeds maximum of %d", len(reader.File), limits.MaxFileCount)
	}

	var entries []Entry
	var totalRead int64

	for _, file := range reader.File {
		if file.Mode()&os.ModeSymlink != 0 || file.FileInfo().IsDir() {
			continue
		}

		name := path.Clean(strings.ReplaceAll(file.Name, `\`, "/"))
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") {
			return nil, fmt.Errorf("zip entry attempts path traversal: %s", file.Name)
		}

		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open zip entry %s: %w", file.Name, err)
		}
		buf, err := io.ReadAll(io.LimitReader(rc, limits.MaxFileSize+1))
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Name, err)
		}
		if int64(len(buf)) > limits.MaxFileSize {
			return nil, fmt.Errorf("file %s exceeds maximum size of %d bytes", file.Name, limits.MaxFileSize)
		}

		totalRead += int64(len(buf))
		if totalRead > limits.MaxTotalSize {
			return nil, fmt.Errorf("total extracted size exceeds maximum of %d bytes", limits.MaxTotalSize)
		}

		entries = append(entries, Entry{Name: name, Data: buf})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// IsZip reports whether data starts with a zip local file header.
func IsZip(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' && data[2] == 3 && data[3] == 4
}
