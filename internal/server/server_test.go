// internal/server/server_test.go
package server

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"estkit/internal/pipeline"
	"estkit/pkg/api"
)

// fakePipeline drops canned artifacts into the job's output tree instead
// of shelling out.
type fakePipeline struct {
	artifacts map[string]string // path under OutputDir -> content
	jobs      []pipeline.Job
	runErr    error
}

func (f *fakePipeline) Run(_ context.Context, job pipeline.Job) ([]pipeline.StageResult, error) {
	f.jobs = append(f.jobs, job)
	if f.runErr != nil {
		return nil, f.runErr
	}
	for rel, content := range f.artifacts {
		fn := filepath.Join(job.OutputDir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(fn), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(fn, []byte(content), 0o644); err != nil {
			return nil, err
		}
	}
	return []pipeline.StageResult{{Name: "makeblastdb"}}, nil
}

func allArtifacts() map[string]string {
	return map[string]string{
		"ssn/ssn.xgmml":                  "<graph></graph>",
		"filtered_sequence_metadata.tab": "id\tattr\tval\n",
		"filtered_sequences.fasta":       ">seq1\nMKLVAW\n",
	}
}

func formBody(fields map[string]string, fileName, fileContent string) (io.Reader, string) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		Expect(mw.WriteField(k, v)).To(Succeed())
	}
	if fileName != "-" {
		part, err := mw.CreateFormFile(api.FormFile, fileName)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(fileContent))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(mw.Close()).To(Succeed())
	return &buf, mw.FormDataContentType()
}

func decodeError(resp *http.Response) api.ErrorV1 {
	var ev api.ErrorV1
	Expect(json.NewDecoder(resp.Body).Decode(&ev)).To(Succeed())
	return ev
}

var _ = Describe("Server", func() {
	var (
		baseDir string
		fp      *fakePipeline
		ts      *httptest.Server
	)

	BeforeEach(func() {
		baseDir = GinkgoT().TempDir()
		fp = &fakePipeline{artifacts: allArtifacts()}
		ts = httptest.NewServer(NewServer(baseDir, fp).Handler())
		DeferCleanup(ts.Close)
	})

	post := func(fields map[string]string, fileName, fileContent string) *http.Response {
		body, ctype := formBody(fields, fileName, fileContent)
		resp, err := http.Post(ts.URL+api.PathProcess, ctype, body)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	Context("health", func() {
		It("reports healthy", func() {
			resp, err := http.Get(ts.URL + api.PathHealth)
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var h api.HealthV1
			Expect(json.NewDecoder(resp.Body).Decode(&h)).To(Succeed())
			Expect(h.Status).To(Equal(api.StatusHealthy))
		})

		It("rejects other methods on the probe route", func() {
			resp, err := http.Post(ts.URL+api.PathHealth, "text/plain", strings.NewReader("x"))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
		})
	})

	Context("request validation", func() {
		It("rejects a request that is not multipart", func() {
			resp, err := http.Post(ts.URL+api.PathProcess, "text/plain", strings.NewReader("nope"))
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Error).To(Equal("No file provided"))
		})

		It("rejects a form without the file part", func() {
			resp := post(map[string]string{api.FormFilterMinVal: "23"}, "-", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Error).To(Equal("No file provided"))
		})

		It("rejects an upload submitted with no file chosen", func() {
			resp := post(nil, "", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Error).To(Equal("No file selected"))
		})

		It("rejects a non-integer filter_min_val", func() {
			resp := post(map[string]string{api.FormFilterMinVal: "many"}, "proteins.fasta", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Error).To(ContainSubstring("filter_min_val"))
		})

		It("rejects a negative filter_min_val", func() {
			resp := post(map[string]string{api.FormFilterMinVal: "-4"}, "proteins.fasta", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("rejects an upload with no sequences", func() {
			resp := post(nil, "empty.fasta", "")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(decodeError(resp).Error).To(ContainSubstring("no sequences"))
			Expect(fp.jobs).To(BeEmpty())
		})

		It("rejects residues outside the protein alphabet", func() {
			resp := post(nil, "bad.fasta", ">seq1\nMK(LVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(fp.jobs).To(BeEmpty())
		})
	})

	Context("successful processing", func() {
		It("returns the artifacts as a zip attachment", func() {
			By("uploading a FASTA with an explicit threshold")
			resp := post(map[string]string{api.FormFilterMinVal: "17"}, "proteins.fasta", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/zip"))
			Expect(resp.Header.Get("Content-Disposition")).To(ContainSubstring(api.ResultsArchiveName))

			By("checking the archive members and their order")
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
			Expect(err).NotTo(HaveOccurred())
			names := make([]string, 0, len(zr.File))
			for _, f := range zr.File {
				names = append(names, f.Name)
			}
			Expect(names).To(Equal(api.Artifacts()))

			By("checking what the pipeline was asked to do")
			Expect(fp.jobs).To(HaveLen(1))
			job := fp.jobs[0]
			Expect(job.FilterMinVal).To(Equal(17))
			Expect(job.FastaPath).To(HavePrefix(filepath.Join(baseDir, "results")))
			Expect(filepath.Base(job.FastaPath)).To(Equal("proteins.fasta"))
			Expect(filepath.Base(job.BlastDB)).To(Equal("blastdb"))
		})

		It("defaults the threshold when the field is absent", func() {
			resp := post(nil, "proteins.fasta", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(fp.jobs[0].FilterMinVal).To(Equal(api.DefaultFilterMinVal))
		})

		It("renames uploads without a .fasta extension", func() {
			resp := post(nil, "proteins.txt", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(filepath.Base(fp.jobs[0].FastaPath)).To(Equal("upload.fasta"))
		})

		It("removes the per-request workspace", func() {
			resp := post(nil, "proteins.fasta", ">seq1\nMKLVAW\n")
			_, err := io.Copy(io.Discard, resp.Body)
			Expect(err).NotTo(HaveOccurred())

			Eventually(func() int {
				entries, err := os.ReadDir(filepath.Join(baseDir, "results"))
				if err != nil {
					return 0
				}
				return len(entries)
			}).Should(BeZero())
		})
	})

	Context("failed pipeline", func() {
		It("names the artifacts it could not find", func() {
			fp.artifacts = map[string]string{"ssn/ssn.xgmml": "<graph></graph>"}
			resp := post(nil, "proteins.fasta", ">seq1\nMKLVAW\n")
			Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))

			ev := decodeError(resp)
			Expect(ev.Error).To(ContainSubstring("Failed to create results package"))
			Expect(ev.MissingFiles).To(Equal([]string{api.ArtifactMetadata, api.ArtifactFasta}))
		})
	})
})
