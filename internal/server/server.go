// internal/server/server.go

// Package server implements the HTTP face of the pipeline: a health
// probe and a multipart /process route that turns one FASTA upload into
// a results archive.
package server

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"estkit/internal/jsonutil"
	"estkit/internal/logutil"
	"estkit/internal/pipeline"
	"estkit/internal/results"
	"estkit/internal/upload"
	"estkit/pkg/api"
)

// Pipeline is the minimal capability the server needs.
// Any implementation (including fakes in tests) can satisfy this.
type Pipeline interface {
	Run(ctx context.Context, job pipeline.Job) ([]pipeline.StageResult, error)
}

// ServerOption configures a Server during initialization.
type ServerOption func(s *Server)

// WithMaxJobs bounds concurrent pipeline runs; excess requests wait
// for a slot instead of failing.
func WithMaxJobs(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.jobs = make(chan struct{}, n)
		}
	}
}

// Server owns a work tree under baseDir/results; every request gets its
// own workspace there and removes it when done.
type Server struct {
	baseDir string
	pipe    Pipeline
	jobs    chan struct{}
}

func NewServer(baseDir string, pipe Pipeline, opts ...ServerOption) *Server {
	s := &Server{
		baseDir: baseDir,
		pipe:    pipe,
		jobs:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+api.PathHealth, s.handleHealth)
	mux.HandleFunc("POST "+api.PathProcess, s.handleProcess)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthV1{Status: api.StatusHealthy})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	select {
	case s.jobs <- struct{}{}:
		defer func() { <-s.jobs }()
	case <-r.Context().Done():
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "No file provided", nil)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	hdr, errMsg := filePart(r)
	if errMsg != "" {
		writeError(w, http.StatusBadRequest, errMsg, nil)
		return
	}

	filterMinVal := api.DefaultFilterMinVal
	if v := r.FormValue(api.FormFilterMinVal); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "filter_min_val must be a non-negative integer", nil)
			return
		}
		filterMinVal = n
	}

	workDir := filepath.Join(s.baseDir, "results", uuid.NewString())
	cacheDir := filepath.Join(workDir, "cache")
	outDir := filepath.Join(workDir, "final_ssn")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		internalError(w, err)
		return
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			klog.Warningf("clean %s: %v", workDir, err)
		}
	}()
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		internalError(w, err)
		return
	}

	name := upload.SanitizeFilename(hdr.Filename)
	fastaPath := filepath.Join(cacheDir, name)
	if err := saveUpload(hdr, fastaPath); err != nil {
		internalError(w, err)
		return
	}
	nseq, err := upload.ValidateProtein(fastaPath)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	klog.V(logutil.VERBOSE).Infof("upload %s: %d sequences, filter_min_val=%d", name, nseq, filterMinVal)

	stages, err := s.pipe.Run(r.Context(), pipeline.Job{
		FastaPath:    fastaPath,
		BlastDB:      filepath.Join(cacheDir, "blastdb"),
		OutputDir:    outDir,
		FilterMinVal: filterMinVal,
	})
	if err != nil {
		// Cancelled: the client went away or the server is draining.
		klog.Warningf("pipeline aborted: %v", err)
		return
	}
	for _, st := range stages {
		switch {
		case st.Skipped:
			klog.V(logutil.VERBOSE).Infof("stage %s skipped", st.Name)
		case st.Err != nil:
			klog.Errorf("stage %s: %v", st.Name, st.Err)
		case st.ExitCode != 0:
			klog.Warningf("stage %s: exit status %d", st.Name, st.ExitCode)
		}
	}

	found, missing := results.Collect(outDir)
	if len(missing) > 0 {
		msg := fmt.Sprintf("Failed to create results package. Missing files: %v", missing)
		writeError(w, http.StatusInternalServerError, msg, missing)
		return
	}
	zipPath, err := results.Archive(outDir, found)
	if err != nil {
		internalError(w, err)
		return
	}

	klog.V(logutil.DEFAULT).Infof("sending %s", zipPath)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", api.ResultsArchiveName))
	http.ServeFile(w, r, zipPath)
}

// filePart digs the upload out of the parsed form, distinguishing a
// missing part from one submitted with no file chosen.
func filePart(r *http.Request) (*multipart.FileHeader, string) {
	if fhs := r.MultipartForm.File[api.FormFile]; len(fhs) > 0 {
		return fhs[0], ""
	}
	// A part with an empty filename parses as a plain value.
	if _, ok := r.MultipartForm.Value[api.FormFile]; ok {
		return nil, "No file selected"
	}
	return nil, "No file provided"
}

func saveUpload(hdr *multipart.FileHeader, dst string) error {
	src, err := hdr.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, cpErr := io.Copy(out, src)
	if err := out.Close(); cpErr == nil {
		cpErr = err
	}
	return cpErr
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := jsonutil.Encode(w, v); err != nil {
		klog.Errorf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string, missing []string) {
	writeJSON(w, code, api.ErrorV1{Error: msg, MissingFiles: missing})
}

func internalError(w http.ResponseWriter, err error) {
	klog.Errorf("processing failed: %v", err)
	writeError(w, http.StatusInternalServerError, fmt.Sprintf("Processing failed: %v", err), nil)
}
