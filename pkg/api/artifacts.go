// pkg/api/artifacts.go
package api

// Endpoints served by the processing API.
const (
	PathHealth  = "/health"
	PathProcess = "/process"
)

// Multipart form parts accepted by POST /process.
const (
	FormFile         = "file"
	FormFilterMinVal = "filter_min_val"
)

// DefaultFilterMinVal applies when a request omits filter_min_val.
const DefaultFilterMinVal = 23

// Canonical member names inside a results archive. The server packs
// artifacts under these names regardless of where the pipeline left them;
// the client looks them up after extraction.
const (
	ArtifactSSN      = "ssn.xgmml"
	ArtifactMetadata = "filtered_sequence_metadata.tab"
	ArtifactFasta    = "filtered_sequences.fasta"
)

// ResultsArchiveName is the attachment filename of a successful response.
const ResultsArchiveName = "results.zip"

// CompleteSSNName is the rebuilt document the client writes next to the
// extracted artifacts.
const CompleteSSNName = "complete_ssn.xgmml"

// Artifacts lists the canonical member names in packing order.
func Artifacts() []string {
	return []string{ArtifactSSN, ArtifactMetadata, ArtifactFasta}
}
