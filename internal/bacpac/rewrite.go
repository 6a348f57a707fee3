package bacpac

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ReplaceEntries writes the cleaned model and resealed origin back into the
// archive. archive/zip cannot update an entry in place, so every entry is
// streamed into a temporary archive in the same directory with the two
// targets substituted, and the result is renamed over the original.
// Untouched entries are copied raw and stay byte-identical; replaced entries
// keep their exact stored names. An entry missing for one of the logical
// names is created under the logical name verbatim.
func ReplaceEntries(archivePath, modelText, originText string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return &WriteError{Message: "reopening archive " + archivePath, Cause: err}
	}
	defer reader.Close()

	tmp, err := os.CreateTemp(filepath.Dir(archivePath), ".bacpacfix-*")
	if err != nil {
		return &WriteError{Message: "creating temporary archive", Cause: err}
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	replacements := map[string]string{
		ModelEntry:  modelText,
		OriginEntry: originText,
	}
	written := make(map[string]bool, len(replacements))

	writer := zip.NewWriter(tmp)
	for _, entry := range reader.File {
		logical := matchLogical(entry.Name, written)
		if logical != "" {
			if err := writeEntry(writer, entry.Name, entry.Modified, replacements[logical]); err != nil {
				writer.Close()
				return &WriteError{Message: "replacing entry " + entry.Name, Cause: err}
			}
			written[logical] = true
			continue
		}
		if err := writer.Copy(entry); err != nil {
			writer.Close()
			return &WriteError{Message: "copying entry " + entry.Name, Cause: err}
		}
	}

	// Defensive: both entries were confirmed present at read time, but if
	// one vanished since, create it under the logical name.
	for _, logical := range []string{ModelEntry, OriginEntry} {
		if !written[logical] {
			if err := writeEntry(writer, logical, time.Now(), replacements[logical]); err != nil {
				writer.Close()
				return &WriteError{Message: "creating entry " + logical, Cause: err}
			}
		}
	}

	if err := writer.Close(); err != nil {
		return &WriteError{Message: "finalizing archive", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &WriteError{Message: "closing temporary archive", Cause: err}
	}

	// Release the original before renaming over it; Windows refuses to
	// replace an open file.
	reader.Close()
	if err := os.Rename(tmpPath, archivePath); err != nil {
		return &WriteError{Message: "replacing archive " + archivePath, Cause: err}
	}
	committed = true
	return nil
}

// matchLogical returns the logical name a stored entry replaces, or "" when
// the entry should be copied through. First match per logical name wins; a
// second entry that also matches is preserved as-is.
func matchLogical(stored string, written map[string]bool) string {
	for _, logical := range []string{ModelEntry, OriginEntry} {
		if !written[logical] && matchesEntry(stored, logical) {
			return logical
		}
	}
	return ""
}

// writeEntry writes text as a deflate-compressed UTF-8 entry without a BOM.
func writeEntry(w *zip.Writer, name string, modified time.Time, text string) error {
	header := &zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified}
	header.SetMode(0o644)
	out, err := w.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := out.Write([]byte(text)); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
