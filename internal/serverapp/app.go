// internal/serverapp/app.go
package serverapp

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"k8s.io/klog/v2"

	"estkit/internal/cmdutil"
	"estkit/internal/pipeline"
	"estkit/internal/server"
	"estkit/internal/servercli"
	"estkit/internal/version"
)

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := servercli.NewFlagSet("estkit-server")
	fs.SetOutput(io.Discard)

	// Unlike the client, no arguments means serve with defaults.
	opts, err := servercli.ParseArgs(fs, argv)
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
		_, _ = fmt.Fprintf(outw, "estkit-server version %s\n", version.Version)
		if e := outw.Flush(); cmdutil.IsBrokenPipe(e) {
			return 0
		} else if e != nil {
			_, _ = fmt.Fprintln(stderr, e)
			return 3
		}
		return 0
	}

	runner := pipeline.New(pipeline.Config{
		BaseDir:        opts.BaseDir,
		EFIConfig:      opts.EFIConfig,
		EFIDB:          opts.EFIDB,
		NextflowConfig: opts.NextflowConfig,
	})
	srv := server.NewServer(opts.BaseDir, runner, server.WithMaxJobs(opts.MaxJobs))

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: srv.Handler(),
		// Uploads and responses can take minutes, so only header reads
		// get a deadline.
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpSrv.ListenAndServe() }()

	klog.Infof("estkit-server %s listening on :%d", version.Version, opts.Port)
	klog.Infof("EFI_DATA_DIR is %s", runner.DataDir())

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			_, _ = fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	case <-parent.Done():
		klog.Infof("shutting down, draining for up to %s", opts.DrainTimeout)
		sctx, cancel := context.WithTimeout(context.Background(), opts.DrainTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil {
			klog.Warningf("drain incomplete: %v", err)
			_ = httpSrv.Close()
		}
		return 130
	}
}
