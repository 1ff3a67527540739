// internal/upload/upload.go
package upload

import (
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// DefaultName stores uploads whose client-supplied filename is unusable.
const DefaultName = "upload.fasta"

var unsafeRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe basename.
// Path components and unsafe characters are dropped; anything not ending
// in .fasta becomes DefaultName, so downstream tools always see the
// extension they expect.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = unsafeRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" || !strings.HasSuffix(name, ".fasta") {
		return DefaultName
	}
	return name
}

// ValidateProtein parses the FASTA at fn against the protein alphabet and
// returns the number of sequences. A file with no sequences, or with
// residues outside the alphabet, is rejected.
func ValidateProtein(fn string) (int, error) {
	f, err := os.Open(fn)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	r := fasta.NewReader(f, linear.NewSeq("", nil, alphabet.Protein))
	n := 0
	for {
		s, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, fmt.Errorf("invalid FASTA: %v", err)
		}
		sq := s.(*linear.Seq)
		if ok, pos := alphabet.Protein.AllValid(sq.Seq); !ok {
			return n, fmt.Errorf("sequence %s: invalid residue at position %d", sq.Name(), pos+1)
		}
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("no sequences found")
	}
	return n, nil
}
