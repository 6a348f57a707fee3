// Package backup copies an archive aside before it is modified.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// Copy copies the archive into dir, or into the archive's own directory when
// dir is empty. The backup name combines the archive's base name, a UTC
// timestamp and the first 8 hex characters of the whole-file SHA-256 of the
// original, so repeated runs against the same source get distinct names.
// Returns the backup path.
func Copy(archivePath, dir string) (string, error) {
	if dir == "" {
		dir = filepath.Dir(archivePath)
	}

	prefix, err := hashPrefix(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", archivePath, err)
	}

	name := fmt.Sprintf("%s.%s-%s.bak",
		filepath.Base(archivePath),
		time.Now().UTC().Format("20060102-150405"),
		prefix,
	)
	dest := filepath.Join(dir, name)

	if err := copyFile(archivePath, dest); err != nil {
		return "", fmt.Errorf("failed to copy backup to %s: %w", dest, err)
	}
	return dest, nil
}

// hashPrefix returns the first 8 hex characters of the file's SHA-256.
func hashPrefix(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil))[:8], nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
