// core/tab/descriptions.go
package tab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Descriptions reads a sequence metadata table and returns the Description
// attribute per sequence id. The table is tab-separated with one
// id/attribute/value triple per row; the first line is a column header and
// is always skipped. Rows for attributes other than Description are
// ignored, as are rows with fewer than three fields. A later row for the
// same id wins.
func Descriptions(r io.Reader) (map[string]string, error) {
	out := map[string]string{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	ln := 0
	for sc.Scan() {
		ln++
		if ln == 1 {
			continue
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		f := strings.Split(line, "\t")
		if len(f) < 3 {
			continue
		}
		if f[1] != "Description" {
			continue
		}
		out[f[0]] = f[2]
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// LoadDescriptions reads the metadata table at path.
func LoadDescriptions(path string) (map[string]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	m, err := Descriptions(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
