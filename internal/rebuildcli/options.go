// internal/rebuildcli/options.go
package rebuildcli

import (
	"flag"
	"fmt"

	"estkit/internal/cliutil"
	"estkit/internal/version"
)

// Options holds all CLI flags and arguments for the standalone rebuilder.
type Options struct {
	EdgesPath    string
	FastaPath    string
	MetadataPath string
	OutputPath   string

	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "%s – rebuild a complete SSN from EST artifacts\n\n", fs.Name())
		fmt.Fprintln(out, "License: MIT")
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)
		fmt.Fprintln(out, "Usage:")
		fmt.Fprintf(out, "  %s [options] <edges.xgmml> <sequences.fasta> <metadata.tab> <out.xgmml>\n", fs.Name())
		fmt.Fprintln(out, "\nInserts one <node> element per unique edge endpoint into the")
		fmt.Fprintln(out, "edges-only document, joining sequences and descriptions by id.")
		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintln(out, "  -q, --quiet                 Suppress per-node warnings and progress")
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
// The four positional arguments are edges, sequences, metadata, output.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress per-node warnings and progress [false]")
	fs.BoolVar(&opt.Quiet, "q", false, "alias of --quiet")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	flagArgs, posArgs := cliutil.SplitFlagsAndPositionals(fs, argv)
	if err := fs.Parse(flagArgs); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	if len(posArgs) != 4 {
		return opt, fmt.Errorf("expected <edges.xgmml> <sequences.fasta> <metadata.tab> <out.xgmml>, got %d argument(s)", len(posArgs))
	}
	opt.EdgesPath, opt.FastaPath, opt.MetadataPath, opt.OutputPath = posArgs[0], posArgs[1], posArgs[2], posArgs[3]
	return opt, nil
}
