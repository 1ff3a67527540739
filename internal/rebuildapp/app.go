// internal/rebuildapp/app.go
package rebuildapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"estkit-core/ssn"
	"estkit/internal/cmdutil"
	"estkit/internal/rebuildcli"
	"estkit/internal/version"
)

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := rebuildcli.NewFlagSet("estkit-rebuild")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = rebuildcli.ParseArgs(fs, []string{"-h"})
		fs.SetOutput(outw)
		fs.Usage()
		if err := outw.Flush(); cmdutil.IsBrokenPipe(err) {
			return 0
		} else if err != nil {
			_, _ = fmt.Fprintln(stderr, err)
			return 3
		}
		return 0
	}

	opts, err := rebuildcli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			if e := outw.Flush(); cmdutil.IsBrokenPipe(e) {
				return 0
			} else if e != nil {
				_, _ = fmt.Fprintln(stderr, e)
				return 3
			}
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(outw)
		fs.Usage()
		if e := outw.Flush(); cmdutil.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "estkit-rebuild version %s\n", version.Version)
		if e := outw.Flush(); cmdutil.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	say := func(format string, args ...any) {
		if !opts.Quiet {
			_, _ = fmt.Fprintf(outw, format+"\n", args...)
		}
	}

	say("Parsing input files...")
	doc, stats, err := ssn.Rebuild(parent, ssn.Inputs{
		EdgesPath:    opts.EdgesPath,
		FastaPath:    opts.FastaPath,
		MetadataPath: opts.MetadataPath,
	})
	if err != nil {
		if parent.Err() != nil {
			return 130
		}
		_, _ = fmt.Fprintf(stderr, "error: rebuild failed: %v\n", err)
		return 1
	}
	say("Found %d sequences", stats.Sequences)
	say("Found %d descriptions", stats.Descriptions)
	say("Found %d unique node IDs in edges", stats.Nodes)
	for _, id := range stats.MissingData {
		cmdutil.Warnf(stderr, opts.Quiet, "limited data found for node %s", id)
	}

	if err := os.WriteFile(opts.OutputPath, doc, 0o644); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	say("Rebuild complete!")
	say("- Added %d nodes", stats.Nodes)
	say("- %d nodes had missing sequence/metadata", len(stats.MissingData))
	say("- Output written to: %s", opts.OutputPath)

	if e := outw.Flush(); cmdutil.IsBrokenPipe(e) {
		return 0
	} else if e != nil {
		_, _ = fmt.Fprintln(stderr, e)
		return 3
	}
	if parent.Err() != nil {
		return 130
	}
	return 0
}
