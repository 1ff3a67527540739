// Package pipeline drives the external EST/SSN tool chain: makeblastdb,
// the two nextflow parameter generators, and the run_nextflow.sh scripts
// those generators emit. Stage failures are recorded, not fatal; later
// stages still run so partial results can be collected.
//
// The only contract to implement is Execer (Exec).
// This keeps the runner swappable and testable.
package pipeline
