// Package bacpac reads and rewrites the two XML entries of a SQL Server
// database export archive (.bacpac/.dacpac), a zip container whose model
// document describes the schema and whose origin manifest carries checksums.
package bacpac

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Logical entry names. Stored names are matched case-insensitively against
// either the full slash-normalized path or the final path segment.
const (
	ModelEntry  = "model.xml"
	OriginEntry = "origin.xml"
)

// Entries holds the decoded text of the two required archive entries.
type Entries struct {
	Model  string
	Origin string
}

// ReadEntries opens the archive read-only and extracts the model and origin
// documents. Bytes are decoded honoring an optional byte-order mark,
// defaulting to UTF-8. Returns both texts or neither.
func ReadEntries(archivePath string) (*Entries, error) {
	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		return nil, &NotFoundError{Path: archivePath}
	}

	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, &ReadError{Message: "opening archive " + archivePath, Cause: err}
	}
	defer reader.Close()

	model, err := readEntry(&reader.Reader, ModelEntry, archivePath)
	if err != nil {
		return nil, err
	}
	origin, err := readEntry(&reader.Reader, OriginEntry, archivePath)
	if err != nil {
		return nil, err
	}

	return &Entries{Model: model, Origin: origin}, nil
}

// findEntry returns the first entry matching the logical name, or nil.
func findEntry(files []*zip.File, logical string) *zip.File {
	for _, f := range files {
		if matchesEntry(f.Name, logical) {
			return f
		}
	}
	return nil
}

// matchesEntry reports whether a stored entry name refers to the logical
// name. Backslashes are normalized to forward slashes before comparing.
func matchesEntry(stored, logical string) bool {
	normalized := strings.ReplaceAll(stored, "\\", "/")
	if strings.EqualFold(normalized, logical) {
		return true
	}
	return strings.EqualFold(path.Base(normalized), logical)
}

func readEntry(r *zip.Reader, logical, archivePath string) (string, error) {
	entry := findEntry(r.File, logical)
	if entry == nil {
		return "", &MissingEntryError{Entry: logical, Archive: archivePath}
	}

	rc, err := entry.Open()
	if err != nil {
		return "", &ReadError{Message: "opening entry " + entry.Name, Cause: err}
	}
	defer rc.Close()

	text, err := decodeText(rc)
	if err != nil {
		return "", &ReadError{Message: "reading entry " + entry.Name, Cause: err}
	}
	return text, nil
}

// decodeText decodes entry bytes to text. A UTF-8 or UTF-16 byte-order mark
// is honored and stripped when present; without one the bytes are UTF-8.
func decodeText(r io.Reader) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	data, err := io.ReadAll(transform.NewReader(r, decoder))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
