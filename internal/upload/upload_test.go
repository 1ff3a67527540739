// internal/upload/upload_test.go
package upload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"proteins.fasta", "proteins.fasta"},
		{"../../etc/passwd.fasta", "passwd.fasta"},
		{`C:\uploads\set one.fasta`, "set_one.fasta"},
		{".hidden.fasta", "hidden.fasta"},
		{"notes.txt", DefaultName},
		{"", DefaultName},
		{"..", DefaultName},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func writeFasta(t *testing.T, body string) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), "in.fasta")
	if err := os.WriteFile(fn, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestValidateProtein(t *testing.T) {
	fn := writeFasta(t, ">b0r2u5 protease\nMKLVAW\nQQRS\n>q9hry6\nACDEFG\n")
	n, err := ValidateProtein(fn)
	if err != nil {
		t.Fatalf("ValidateProtein: %v", err)
	}
	if n != 2 {
		t.Errorf("sequence count = %d, want 2", n)
	}
}

func TestValidateProteinEmpty(t *testing.T) {
	fn := writeFasta(t, "")
	if _, err := ValidateProtein(fn); err == nil {
		t.Fatal("expected error for empty file")
	} else if !strings.Contains(err.Error(), "no sequences") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateProteinBadResidue(t *testing.T) {
	fn := writeFasta(t, ">seq1\nMKL(VAW\n")
	if _, err := ValidateProtein(fn); err == nil {
		t.Fatal("expected error for invalid residue")
	}
}

func TestValidateProteinMissingFile(t *testing.T) {
	if _, err := ValidateProtein(filepath.Join(t.TempDir(), "nope.fasta")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
