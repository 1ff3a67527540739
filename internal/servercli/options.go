// internal/servercli/options.go
package servercli

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"estkit/internal/version"
	"k8s.io/klog/v2"
)

// DefaultPort is used when neither --port nor the PORT environment
// variable is set.
const DefaultPort = 56100

// Options holds all CLI flags for the processing server.
type Options struct {
	// Listen
	Port         int
	DrainTimeout time.Duration

	// Layout
	BaseDir string

	// Pipeline
	EFIConfig      string
	EFIDB          string
	NextflowConfig string

	// Processing
	MaxJobs int

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

		fmt.Fprintf(out, "%s – EFI-EST processing server\n\n", fs.Name())
		fmt.Fprintln(out, "License: MIT")
		fmt.Fprintf(out, "Version: %s\n\n", version.Version)

		fmt.Fprintln(out, "Usage:")
		fmt.Fprintf(out, "  %s [options]\n", fs.Name())

		fmt.Fprintln(out, "\nListen:")
		fmt.Fprintf(out, "      --port int              Listen port; PORT env sets the default [%s]\n", def("port"))
		fmt.Fprintf(out, "      --drain-timeout dur     Shutdown grace period for in-flight jobs [%s]\n", def("drain-timeout"))

		fmt.Fprintln(out, "\nPipeline:")
		fmt.Fprintf(out, "      --base-dir string       Root for data/ and per-job workspaces [%s]\n", def("base-dir"))
		fmt.Fprintf(out, "      --efi-config string     EST config file handed to the parameter generators [%s]\n", def("efi-config"))
		fmt.Fprintf(out, "      --efi-db string         EST sqlite database [%s]\n", def("efi-db"))
		fmt.Fprintf(out, "      --nextflow-config string  Nextflow profile for both stages [%s]\n", def("nextflow-config"))

		fmt.Fprintln(out, "\nProcessing:")
		fmt.Fprintf(out, "      --max-jobs int          Submissions processed concurrently [%s]\n", def("max-jobs"))

		fmt.Fprintln(out, "\nMiscellaneous:")
		fmt.Fprintln(out, "      --v int                 Logging verbosity (klog)")
		fmt.Fprintln(out, "      --version               Print version and exit")
		fmt.Fprintln(out, "  -h, --help                  Show this help and exit")
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
// klog's flags (-v and friends) are registered on the same FlagSet.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.IntVar(&opt.Port, "port", defaultPort(), "listen port (PORT env sets the default)")
	fs.DurationVar(&opt.DrainTimeout, "drain-timeout", 30*time.Second, "shutdown grace period for in-flight jobs")

	fs.StringVar(&opt.BaseDir, "base-dir", ".", "root for data/ and per-job workspaces")
	fs.StringVar(&opt.EFIConfig, "efi-config", "./data/efi/efi.config", "EST config file handed to the parameter generators")
	fs.StringVar(&opt.EFIDB, "efi-db", "./data/efi/efi_db.sqlite", "EST sqlite database")
	fs.StringVar(&opt.NextflowConfig, "nextflow-config", "conf/est/docker.config", "nextflow profile for both stages")

	fs.IntVar(&opt.MaxJobs, "max-jobs", 1, "submissions processed concurrently [1]")

	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	klog.InitFlags(fs)

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	// Validation
	if fs.NArg() > 0 {
		return opt, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}
	if opt.Port < 1 || opt.Port > 65535 {
		return opt, errors.New("--port must be between 1 and 65535")
	}
	if opt.MaxJobs < 1 {
		return opt, errors.New("--max-jobs must be ≥ 1")
	}
	if opt.DrainTimeout <= 0 {
		return opt, errors.New("--drain-timeout must be positive")
	}
	if opt.BaseDir == "" {
		return opt, errors.New("--base-dir must not be empty")
	}
	return opt, nil
}

func defaultPort() int {
	if s := os.Getenv("PORT"); s != "" {
		if p, err := strconv.Atoi(s); err == nil {
			return p
		}
	}
	return DefaultPort
}
