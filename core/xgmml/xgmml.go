// core/xgmml/xgmml.go
package xgmml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var (
	// ErrNoGraph means the document has no <graph> opening tag.
	ErrNoGraph = errors.New("xgmml: no <graph> element")
	// ErrNoEdges means the document contains no <edge> elements.
	ErrNoEdges = errors.New("xgmml: no <edge> elements")
)

var (
	edgeSourceRe = regexp.MustCompile(`<edge[^>]*source="([^"]*)"`)
	edgeTargetRe = regexp.MustCompile(`<edge[^>]*target="([^"]*)"`)
	graphOpenRe  = regexp.MustCompile(`<graph[^>]*>`)
	edgeOpenRe   = regexp.MustCompile(`<edge[^>]*>`)
)

// EdgeEndpoints returns the sorted unique node ids referenced as source or
// target by the edge elements of doc. The scan is textual; it does not
// require the document to be well-formed beyond the edge tags themselves.
func EdgeEndpoints(doc []byte) []string {
	seen := map[string]struct{}{}
	for _, re := range []*regexp.Regexp{edgeSourceRe, edgeTargetRe} {
		for _, m := range re.FindAllSubmatch(doc, -1) {
			seen[string(m[1])] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Node carries the attributes rendered into one <node> element.
type Node struct {
	ID          string
	Sequence    string
	Description string
}

// RenderNodes serializes nodes one element per node, each block terminated
// by a newline. Attribute values are XML-escaped; Sequence Length counts
// the unescaped sequence.
func RenderNodes(nodes []Node) []byte {
	var b bytes.Buffer
	for _, n := range nodes {
		appendNode(&b, n)
	}
	return b.Bytes()
}

func appendNode(b *bytes.Buffer, n Node) {
	id := esc(n.ID)
	fmt.Fprintf(b, "  <node id=\"%s\" label=\"%s\">\n", id, id)
	b.WriteString("    <att name=\"Sequence Source\" type=\"string\" value=\"USER\" />\n")
	fmt.Fprintf(b, "    <att name=\"Sequence Length\" type=\"integer\" value=\"%d\" />\n", len(n.Sequence))
	b.WriteString("    <att type=\"list\" name=\"Other IDs\">\n")
	b.WriteString("      <att type=\"string\" name=\"Other IDs\" value=\"None\" />\n")
	b.WriteString("    </att>\n")
	fmt.Fprintf(b, "    <att name=\"Sequence\" type=\"string\" value=\"%s\" />\n", esc(n.Sequence))
	b.WriteString("    <att type=\"list\" name=\"Description\">\n")
	fmt.Fprintf(b, "      <att type=\"string\" name=\"Description\" value=\"%s\" />\n", esc(n.Description))
	b.WriteString("    </att>\n")
	b.WriteString("  </node>\n")
}

// InsertNodes returns a copy of doc with the rendered nodes inserted
// immediately before the first <edge> element. The rest of the document is
// preserved byte-for-byte. The document must contain a <graph> opening tag
// and at least one edge.
func InsertNodes(doc []byte, nodes []Node) ([]byte, error) {
	if !graphOpenRe.Match(doc) {
		return nil, ErrNoGraph
	}
	loc := edgeOpenRe.FindIndex(doc)
	if loc == nil {
		return nil, ErrNoEdges
	}
	block := RenderNodes(nodes)
	out := make([]byte, 0, len(doc)+len(block))
	out = append(out, doc[:loc[0]]...)
	out = append(out, block...)
	out = append(out, doc[loc[0]:]...)
	return out, nil
}

func esc(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
