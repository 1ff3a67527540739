// internal/archive/archive.go
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Member names one file to pack: Name inside the archive, Path on disk.
type Member struct {
	Name string
	Path string
}

// Pack writes a zip archive at zipPath containing each member file under
// its archive name, in the given order.
func Pack(zipPath string, members []Member) (err error) {
	zf, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := zf.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(zf)
	for _, m := range members {
		if err := addMember(zw, m); err != nil {
			_ = zw.Close()
			return fmt.Errorf("pack %s: %w", m.Name, err)
		}
	}
	return zw.Close()
}

func addMember(zw *zip.Writer, m Member) error {
	src, err := os.Open(m.Path)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	w, err := zw.Create(m.Name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

// Extract unpacks the archive at zipPath into destDir, creating it if
// needed, and returns the member names in archive order. Members that
// would land outside destDir are rejected.
func Extract(zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = zr.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, err
	}
	var names []string
	for _, f := range zr.File {
		if err := extractFile(f, destDir); err != nil {
			return nil, err
		}
		names = append(names, f.Name)
	}
	return names, nil
}

func extractFile(f *zip.File, destDir string) error {
	dst := filepath.Join(destDir, filepath.FromSlash(f.Name))
	if rel, err := filepath.Rel(destDir, dst); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return fmt.Errorf("archive: illegal member path %q", f.Name)
	}
	if f.FileInfo().IsDir() {
		return os.MkdirAll(dst, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()
	w, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
