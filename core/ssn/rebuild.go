// core/ssn/rebuild.go
package ssn

import (
	"context"
	"os"
	"strings"

	"estkit-core/fasta"
	"estkit-core/tab"
	"estkit-core/xgmml"
)

// Stats summarizes one rebuild.
type Stats struct {
	Sequences    int      // unique sequence ids loaded from FASTA
	Descriptions int      // Description rows loaded from the metadata table
	Nodes        int      // unique edge endpoints, all rendered
	MissingData  []string // node ids lacking a sequence or a description, sorted
}

// Inputs names the three artifacts a rebuild consumes.
type Inputs struct {
	EdgesPath    string // edges-only XGMML document
	FastaPath    string // filtered sequences
	MetadataPath string // sequence metadata table
}

// Rebuild merges the edges-only document with sequence and description data
// into a complete network: one <node> element per unique edge endpoint,
// inserted before the first edge, endpoints in lexicographic order.
// Endpoint ids match FASTA ids and metadata ids case-insensitively. A node
// without a sequence gets an empty Sequence (length 0); one without a
// description gets "Unknown". The inputs are never modified.
func Rebuild(ctx context.Context, in Inputs) ([]byte, Stats, error) {
	var st Stats

	recs, err := fasta.Load(ctx, in.FastaPath)
	if err != nil {
		return nil, st, err
	}
	seqs := make(map[string]string, len(recs))
	for _, r := range recs {
		seqs[strings.ToUpper(r.ID)] = string(r.Seq)
	}
	st.Sequences = len(seqs)

	descRows, err := tab.LoadDescriptions(in.MetadataPath)
	if err != nil {
		return nil, st, err
	}
	st.Descriptions = len(descRows)
	descs := make(map[string]string, len(descRows))
	for id, d := range descRows {
		descs[strings.ToUpper(id)] = d
	}

	doc, err := os.ReadFile(in.EdgesPath)
	if err != nil {
		return nil, st, err
	}
	ids := xgmml.EdgeEndpoints(doc)
	st.Nodes = len(ids)

	nodes := make([]xgmml.Node, 0, len(ids))
	for _, id := range ids {
		key := strings.ToUpper(id)
		seq, okSeq := seqs[key]
		desc, okDesc := descs[key]
		if !okDesc {
			desc = "Unknown"
		}
		if !okSeq || !okDesc {
			st.MissingData = append(st.MissingData, id)
		}
		nodes = append(nodes, xgmml.Node{ID: id, Sequence: seq, Description: desc})
	}

	out, err := xgmml.InsertNodes(doc, nodes)
	if err != nil {
		return nil, st, err
	}
	return out, st, nil
}
