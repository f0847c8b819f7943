package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/TheMichaelB/credvault/internal/models"
)

// vaultFileMode keeps vault files private to the owner.
const vaultFileMode os.FileMode = 0600

// writeFileAtomic streams content into a temp file next to path, syncs it and
// renames it over path. Either the old file or the complete new one is on
// disk afterwards; the temp file never survives a failure.
func writeFileAtomic(path string, mode os.FileMode, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)

	tempFile, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return &models.IOError{Op: "write", Path: path, Err: err}
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			tempFile.Close()
			os.Remove(tempPath)
		}
	}()

	if err := tempFile.Chmod(mode); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("chmod temp file: %w", err)}
	}

	if err := write(tempFile); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: err}
	}

	if err := tempFile.Sync(); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("sync file: %w", err)}
	}

	if err := tempFile.Close(); err != nil {
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("close temp file: %w", err)}
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return &models.IOError{Op: "write", Path: path, Err: fmt.Errorf("rename temp file: %w", err)}
	}

	success = true
	return nil
}

// readFile wraps os.ReadFile errors as IOError.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// copyFile copies src to dst with vault permissions.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return writeFileAtomic(dst, vaultFileMode, func(w io.Writer) error {
		_, err := io.Copy(w, in)
		return err
	})
}
