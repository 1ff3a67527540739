// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"estkit-core/ssn"
	"estkit/internal/apiclient"
	"estkit/internal/archive"
	"estkit/internal/cli"
	"estkit/internal/cmdutil"
	"estkit/internal/version"
	"estkit/pkg/api"
)

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("estkit")
	fs.SetOutput(io.Discard)

	if len(argv) == 0 {
		_, _ = cli.ParseArgs(fs, []string{"-h"})
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

	opts, err := cli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(outw, "estkit version %s\n", version.Version)
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

	if _, err := os.Stat(opts.FastaFile); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: file not found: %s\n", opts.FastaFile)
		return 1
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}

	client := apiclient.New(opts.Server)

	say("Checking server at %s...", opts.Server)
	if err := client.Health(parent); err != nil {
		_, _ = fmt.Fprintf(stderr, "error: server at %s is not responding (%v)\n", opts.Server, err)
		return 1
	}
	say("Server is healthy!")

	say("Uploading %s to %s...", opts.FastaFile, opts.Server+api.PathProcess)
	say("Using filter_min_val: %d", opts.FilterMinVal)

	tmpZip, err := os.CreateTemp("", "estkit-*.zip")
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	tmpName := tmpZip.Name()
	defer func() { _ = os.Remove(tmpName) }()

	pctx, cancel := context.WithTimeout(parent, opts.Timeout)
	_, perr := client.Process(pctx, opts.FastaFile, opts.FilterMinVal, tmpZip)
	cancel()
	if cerr := tmpZip.Close(); perr == nil {
		perr = cerr
	}
	if perr != nil {
		if parent.Err() != nil {
			return 130
		}
		if errors.Is(perr, context.DeadlineExceeded) {
			_, _ = fmt.Fprintf(stderr, "error: request timed out after %s\n", opts.Timeout)
			return 1
		}
		_, _ = fmt.Fprintln(stderr, "error:", perr)
		var se *apiclient.StatusError
		if errors.As(perr, &se) && len(se.MissingFiles) > 0 {
			_, _ = fmt.Fprintf(stderr, "missing files: %v\n", se.MissingFiles)
		}
		return 1
	}

	extracted, err := archive.Extract(tmpName, opts.OutputDir)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "error: received invalid archive from server (%v)\n", err)
		return 1
	}

	say("Success! Extracted files to: %s", opts.OutputDir)
	say("Files extracted:")
	for _, name := range extracted {
		fn := filepath.Join(opts.OutputDir, name)
		if fi, err := os.Stat(fn); err == nil {
			say("  - %s (%d bytes)", name, fi.Size())
		} else {
			say("  - %s (not found)", name)
		}
	}

	ssnPath := filepath.Join(opts.OutputDir, api.ArtifactSSN)
	fastaPath := filepath.Join(opts.OutputDir, api.ArtifactFasta)
	metaPath := filepath.Join(opts.OutputDir, api.ArtifactMetadata)
	completePath := filepath.Join(opts.OutputDir, api.CompleteSSNName)

	var missing []string
	for _, p := range []struct{ path, name string }{
		{ssnPath, api.ArtifactSSN},
		{fastaPath, api.ArtifactFasta},
		{metaPath, api.ArtifactMetadata},
	} {
		if _, err := os.Stat(p.path); err != nil {
			missing = append(missing, p.name)
		}
	}
	if len(missing) > 0 {
		_, _ = fmt.Fprintf(stderr, "error: missing required files for rebuild: %v\n", missing)
		return 1
	}

	say("Rebuilding complete XGMML...")
	doc, stats, err := ssn.Rebuild(parent, ssn.Inputs{
		EdgesPath:    ssnPath,
		FastaPath:    fastaPath,
		MetadataPath: metaPath,
	})
	if err != nil {
		if parent.Err() != nil {
			return 130
		}
		_, _ = fmt.Fprintf(stderr, "error: rebuild failed: %v\n", err)
		return 1
	}
	say("  - Found %d sequences", stats.Sequences)
	say("  - Found %d descriptions", stats.Descriptions)
	say("  - Found %d unique node IDs in edges", stats.Nodes)
	say("  - Added %d nodes", stats.Nodes)
	if n := len(stats.MissingData); n > 0 {
		say("  - Warning: %d nodes had missing sequence/metadata", n)
	}
	if err := os.WriteFile(completePath, doc, 0o644); err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 3
	}
	say("  - Complete XGMML written to: %s", completePath)

	if opts.KeepIntermediate {
		say("Intermediate files kept in: %s", opts.OutputDir)
	} else {
		say("Cleaning up intermediate files...")
		for _, p := range []string{ssnPath, fastaPath, metaPath} {
			if err := os.Remove(p); err != nil {
				cmdutil.Warnf(stderr, opts.Quiet, "could not remove %s: %v", filepath.Base(p), err)
				continue
			}
			say("  - Removed %s", filepath.Base(p))
		}
	}

	say("Processing complete.")
	say("Final result: %s", completePath)
	if fi, err := os.Stat(completePath); err == nil {
		say("Complete XGMML size: %d bytes", fi.Size())
	}

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
