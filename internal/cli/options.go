// internal/cli/options.go
package cli

import (
	"errors"
	"flag"
	"fmt"
	"time"

	"estkit/internal/cliutil"
	"estkit/internal/version"
	"estkit/pkg/api"
)

// Client defaults, shared with the workflow docs.
const (
	DefaultServer    = "http://localhost:7860"
	DefaultOutputDir = "output"
	DefaultTimeout   = 30 * time.Minute
)

// Options holds all CLI flags and arguments for the submission client.
type Options struct {
	// Input
	FastaFile string

	// Server
	Server  string
	Timeout time.Duration

	// Output
	OutputDir        string
	FilterMinVal     int
	KeepIntermediate bool

	// Misc
	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		out := fs.Output()
		def := func(flagName string) string {
			if f := fs.Lookup(flagName); f != nil {
				return f.DefValue
			}
			return ""
		}

		fmt.Fprintf(out, "%s – EFI-EST submission client\n\n", fs.Name())
		fmt.Fprintln(out, "License: MIT")
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		fmt.Fprintln(out, "Usage:")
		fmt.Fprintf(out, "  %s [options] input.fasta\n", fs.Name())

		fmt.Fprintln(out, "\nServer:")
		fmt.Fprintf(out, "      --server string         Processing server base URL [%s]\n", def("server"))
		fmt.Fprintf(out, "      --timeout duration      Processing request timeout [%s]\n", def("timeout"))

		fmt.Fprintln(out, "\nOutput:")
		fmt.Fprintf(out, "  -o, --output-dir string     Directory for extracted results [%s]\n", def("output-dir"))
		fmt.Fprintf(out, "      --filter-min-val int    Minimum alignment score for SSN generation [%s]\n", def("filter-min-val"))
		fmt.Fprintf(out, "      --keep-intermediate     Keep the extracted artifacts after the rebuild [%s]\n", def("keep-intermediate"))

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintf(out, "  -q, --quiet                 Suppress progress output [%s]\n", def("quiet"))
		fmt.Fprintln(out, "  -v, --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
// The single positional argument is the FASTA file to submit.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.Server, "server", DefaultServer, "processing server base URL")
	fs.DurationVar(&opt.Timeout, "timeout", DefaultTimeout, "processing request timeout")

	fs.StringVar(&opt.OutputDir, "output-dir", DefaultOutputDir, "directory for extracted results")
	fs.StringVar(&opt.OutputDir, "o", DefaultOutputDir, "alias of --output-dir")
	fs.IntVar(&opt.FilterMinVal, "filter-min-val", api.DefaultFilterMinVal, "minimum alignment score for SSN generation")
	fs.BoolVar(&opt.KeepIntermediate, "keep-intermediate", false, "keep extracted artifacts after the rebuild [false]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress progress output [false]")
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

	// Validation
	switch len(posArgs) {
	case 0:
		return opt, errors.New("an input FASTA path is required")
	case 1:
		opt.FastaFile = posArgs[0]
	default:
		return opt, fmt.Errorf("expected one input FASTA path, got %d", len(posArgs))
	}
	server, err := cliutil.NormalizeServerURL(opt.Server)
	if err != nil {
		return opt, err
	}
	opt.Server = server
	if opt.FilterMinVal < 0 {
		return opt, errors.New("--filter-min-val must be ≥ 0")
	}
	if opt.OutputDir == "" {
		return opt, errors.New("--output-dir must not be empty")
	}
	if opt.Timeout <= 0 {
		return opt, errors.New("--timeout must be positive")
	}
	return opt, nil
}
