// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"k8s.io/klog/v2"

	"estkit/internal/logutil"
	"estkit/pkg/api"
)

// Config carries the paths every job shares. EFIConfig, EFIDB and
// NextflowConfig are handed to the parameter generators verbatim.
type Config struct {
	BaseDir        string // working directory for every stage
	DataDir        string // exported as EFI_DATA_DIR; defaults to BaseDir/data/efi
	EFIConfig      string
	EFIDB          string
	NextflowConfig string
}

// Job describes one uploaded FASTA to push through the tool chain.
type Job struct {
	FastaPath    string
	BlastDB      string // makeblastdb output prefix
	OutputDir    string // nextflow output tree; artifacts are collected from here
	FilterMinVal int
}

// StageResult records one stage's outcome. A non-zero ExitCode or a
// launch error does not stop the run.
type StageResult struct {
	Name     string
	Skipped  bool
	ExitCode int
	Output   []byte
	Err      error
}

// Execer is the minimal capability the runner needs.
// Any implementation (including fakes in tests) can satisfy this.
type Execer interface {
	Exec(ctx context.Context, dir string, env []string, name string, args ...string) (out []byte, code int, err error)
}

// ExecFunc adapts a plain function to Execer.
type ExecFunc func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, int, error)

func (f ExecFunc) Exec(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, int, error) {
	return f(ctx, dir, env, name, args...)
}

// runCommand is the production Execer. A non-zero exit is reported via
// code, not err; err is reserved for failing to launch the command at all.
func runCommand(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			return out, ee.ExitCode(), nil
		}
		return out, -1, err
	}
	return out, 0, nil
}

// Runner executes the five-stage tool chain for one job at a time.
type Runner struct {
	cfg Config
	ex  Execer
}

func New(cfg Config) *Runner {
	return NewWithExec(cfg, ExecFunc(runCommand))
}

// NewWithExec is New with the external-command contract swapped out.
func NewWithExec(cfg Config, ex Execer) *Runner {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.BaseDir, "data", "efi")
	}
	return &Runner{cfg: cfg, ex: ex}
}

type command struct {
	name       string
	path       string
	args       []string
	skipUnless string // stage runs only when this path exists
}

func (r *Runner) commands(job Job) []command {
	estScript := filepath.Join(job.OutputDir, "run_nextflow.sh")
	ssnScript := filepath.Join(job.OutputDir, "ssn", "run_nextflow.sh")
	return []command{
		{
			name: "makeblastdb",
			path: "makeblastdb",
			args: []string{"-in", job.FastaPath, "-dbtype", "prot", "-out", job.BlastDB},
		},
		{
			name: "est-params",
			path: "python",
			args: []string{"bin/create_est_nextflow_params.py", "fasta",
				"--fasta-file", job.FastaPath,
				"--fasta-db", job.BlastDB,
				"--output-dir", job.OutputDir,
				"--efi-config", r.cfg.EFIConfig,
				"--efi-db", r.cfg.EFIDB,
				"--nextflow-config", r.cfg.NextflowConfig,
			},
		},
		{
			name:       "est-nextflow",
			path:       "bash",
			args:       []string{estScript},
			skipUnless: estScript,
		},
		{
			name: "ssn-params",
			path: "python",
			args: []string{"bin/create_generatessn_nextflow_params.py", "auto",
				"--filter-min-val", strconv.Itoa(job.FilterMinVal),
				"--ssn-name", api.ArtifactSSN,
				"--ssn-title", "Test SSN",
				"--est-output-dir", job.OutputDir,
				"--efi-config", r.cfg.EFIConfig,
				"--efi-db", r.cfg.EFIDB,
				"--nextflow-config", r.cfg.NextflowConfig,
			},
		},
		{
			name:       "ssn-nextflow",
			path:       "bash",
			args:       []string{ssnScript},
			skipUnless: ssnScript,
		},
	}
}

// Run executes every stage in order and returns one StageResult per stage.
// The parameter generators only emit run_nextflow.sh when their inputs are
// usable, so the two script stages are skipped when the script is absent.
// The only error Run itself returns is context cancellation.
func (r *Runner) Run(ctx context.Context, job Job) ([]StageResult, error) {
	env := append(os.Environ(), "EFI_DATA_DIR="+r.cfg.DataDir)
	var results []StageResult
	for _, c := range r.commands(job) {
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
		if c.skipUnless != "" {
			if _, err := os.Stat(c.skipUnless); err != nil {
				klog.Warningf("stage %s: %s not found, skipping", c.name, c.skipUnless)
				results = append(results, StageResult{Name: c.name, Skipped: true})
				continue
			}
		}
		klog.V(logutil.VERBOSE).Infof("stage %s: %s %s", c.name, c.path, strings.Join(c.args, " "))
		out, code, err := r.ex.Exec(ctx, r.cfg.BaseDir, env, c.path, c.args...)
		if len(out) > 0 {
			klog.V(logutil.TRACE).Infof("stage %s output:\n%s", c.name, out)
		}
		results = append(results, StageResult{Name: c.name, ExitCode: code, Output: out, Err: err})
		switch {
		case err != nil:
			klog.Errorf("stage %s: %v", c.name, err)
		case code != 0:
			klog.Warningf("stage %s: exit status %d", c.name, code)
		}
	}
	if ctx.Err() != nil {
		return results, ctx.Err()
	}
	return results, nil
}

// DataDir reports the directory exported to stages as EFI_DATA_DIR.
func (r *Runner) DataDir() string { return r.cfg.DataDir }
