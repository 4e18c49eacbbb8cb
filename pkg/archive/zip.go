package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ZipDir compresses the contents of srcDir (not the directory itself) into a
// zip file at destPath. Entry names use forward slashes relative to srcDir.
func ZipDir(srcDir, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	defer out.Close() //nolint:errcheck

	writer := zip.NewWriter(out)

	err = filepath.WalkDir(srcDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		entry, err := writer.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("create archive entry %q: %w", rel, err)
		}
		file, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open archive source %q: %w", rel, err)
		}
		defer file.Close() //nolint:errcheck
		if _, err := io.Copy(entry, file); err != nil {
			return fmt.Errorf("write archive entry %q: %w", rel, err)
		}
		return nil
	})
	if err != nil {
		_ = writer.Close()
		return err
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return nil
}

// ExtractFile returns the content of the first entry whose name ends with
// suffix, reading the archive from raw bytes.
func ExtractFile(raw []byte, suffix string) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	for _, entry := range reader.File {
		if !strings.HasSuffix(entry.Name, suffix) {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, fmt.Errorf("open archive entry %q: %w", entry.Name, err)
		}
		defer rc.Close() //nolint:errcheck
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read archive entry %q: %w", entry.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("archive has no entry matching %q", suffix)
}
