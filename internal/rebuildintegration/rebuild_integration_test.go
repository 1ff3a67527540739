// internal/rebuildintegration/rebuild_integration_test.go
package rebuildintegration

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"estkit/internal/rebuildapp"
)

func write(t *testing.T, fn, data string) string {
	t.Helper()
	if err := os.WriteFile(fn, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", fn, err)
	}
	return fn
}

func writeInputs(t *testing.T) (edges, fasta, meta, out string) {
	t.Helper()
	dir := t.TempDir()
	edges = write(t, filepath.Join(dir, "ssn.xgmml"), `<?xml version="1.0"?>
<graph label="filtered" directed="1">
  <edge id="e1" label="e1" source="B0R2U5" target="Q9HRY6" />
</graph>
`)
	fasta = write(t, filepath.Join(dir, "filtered_sequences.fasta"), ">B0R2U5\nMKLVAW\n>Q9HRY6\nACDEFG\n")
	meta = write(t, filepath.Join(dir, "filtered_sequence_metadata.tab"),
		"Attribute summary\nB0R2U5\tDescription\tProtease homolog\nQ9HRY6\tDescription\tKinase\n")
	out = filepath.Join(dir, "complete_ssn.xgmml")
	return edges, fasta, meta, out
}

func TestRebuildEndToEnd(t *testing.T) {
	edges, fasta, meta, out := writeInputs(t)

	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{edges, fasta, meta, out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, err=%s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Added 2 nodes") {
		t.Errorf("stdout = %s", stdout.String())
	}

	doc, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	s := string(doc)
	nodeAt := strings.Index(s, `<node id="B0R2U5"`)
	edgeAt := strings.Index(s, "<edge")
	if nodeAt < 0 || edgeAt < 0 || nodeAt > edgeAt {
		t.Errorf("nodes not inserted before edges:\n%s", s)
	}
	if !strings.Contains(s, `value="Protease homolog"`) {
		t.Errorf("description missing:\n%s", s)
	}
}

func TestRebuildWarnsPerNodeWithMissingData(t *testing.T) {
	edges, fasta, meta, out := writeInputs(t)
	// A0A001 appears in the edges but not in the FASTA or metadata.
	write(t, edges, `<?xml version="1.0"?>
<graph label="filtered" directed="1">
  <edge id="e1" label="e1" source="B0R2U5" target="A0A001" />
</graph>
`)

	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{edges, fasta, meta, out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, err=%s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "limited data found for node A0A001") {
		t.Errorf("missing per-node warning, stderr = %s", stderr.String())
	}
	if !strings.Contains(stdout.String(), "1 nodes had missing sequence/metadata") {
		t.Errorf("stdout = %s", stdout.String())
	}
}

func TestRebuildQuiet(t *testing.T) {
	edges, fasta, meta, out := writeInputs(t)

	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{"-q", edges, fasta, meta, out}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit %d, err=%s", code, stderr.String())
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet run wrote: %s", stdout.String())
	}
}

func TestRebuildWrongArity(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{"only.xgmml", "two.fasta"}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("exit %d, want 2", code)
	}
	if !strings.Contains(stderr.String(), "expected") {
		t.Errorf("stderr = %s", stderr.String())
	}
}

func TestRebuildMissingEdgesFile(t *testing.T) {
	_, fasta, meta, out := writeInputs(t)

	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{filepath.Join(t.TempDir(), "nope.xgmml"), fasta, meta, out}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
}

func TestRebuildNoEdgesInDocument(t *testing.T) {
	edges, fasta, meta, out := writeInputs(t)
	write(t, edges, `<?xml version="1.0"?><graph label="empty"></graph>`)

	var stdout, stderr bytes.Buffer
	code := rebuildapp.Run([]string{edges, fasta, meta, out}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "edge") {
		t.Errorf("stderr = %s", stderr.String())
	}
}
