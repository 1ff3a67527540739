// internal/results/results.go

// Package results locates pipeline artifacts under an output tree and
// packs them into the archive served back to the client. Nextflow
// versions disagree on where and what they write, so collection is
// deliberately fuzzy: an exact-ish pass first, then per-artifact
// heuristics over every file in the tree.
package results

import (
	"io/fs"
	"path/filepath"
	"strings"

	"k8s.io/klog/v2"

	"estkit/internal/archive"
	"estkit/internal/logutil"
	"estkit/pkg/api"
)

// fallback holds the per-artifact second-pass heuristics, applied to
// lowercased basenames.
var fallback = map[string]func(string) bool{
	api.ArtifactSSN: func(b string) bool {
		return strings.Contains(b, "ssn") && strings.HasSuffix(b, ".xgmml")
	},
	api.ArtifactMetadata: func(b string) bool {
		return (strings.Contains(b, "metadata") || strings.Contains(b, "filtered")) && strings.HasSuffix(b, ".tab")
	},
	api.ArtifactFasta: func(b string) bool {
		return (strings.Contains(b, "filtered") || strings.Contains(b, "sequence")) && strings.HasSuffix(b, ".fasta")
	},
}

func stemAndExt(name string) (stem, ext string) {
	stem, ext = name, name
	if i := strings.IndexByte(name, '.'); i >= 0 {
		stem = name[:i]
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		ext = name[i+1:]
	}
	return stem, ext
}

// Collect walks root and maps each canonical artifact name to the path
// that will be shipped under it. The walk is lexical, so the first
// candidate in path order wins. Canonical names still unmatched after
// both passes come back in missing, in api.Artifacts() order.
func Collect(root string) (found map[string]string, missing []string) {
	var files []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		files = append(files, p)
		return nil
	})

	required := api.Artifacts()
	found = make(map[string]string, len(required))

	for _, p := range files {
		name := filepath.Base(p)
		for _, req := range required {
			if _, ok := found[req]; ok {
				continue
			}
			stem, ext := stemAndExt(req)
			if strings.HasSuffix(name, ext) && strings.Contains(name, stem) {
				found[req] = p
				klog.V(logutil.DEBUG).Infof("found %s: %s", req, p)
			}
		}
	}

	for _, req := range required {
		if _, ok := found[req]; ok {
			continue
		}
		match := fallback[req]
		for _, p := range files {
			if match(strings.ToLower(filepath.Base(p))) {
				found[req] = p
				klog.V(logutil.DEBUG).Infof("found %s (fuzzy): %s", req, p)
				break
			}
		}
	}

	for _, req := range required {
		if _, ok := found[req]; !ok {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		klog.Warningf("artifacts missing under %s: %v", root, missing)
	}
	return found, missing
}

// Archive writes the collected artifacts to root/results.zip under their
// canonical names, in api.Artifacts() order, and returns the zip path.
func Archive(root string, found map[string]string) (string, error) {
	members := make([]archive.Member, 0, len(found))
	for _, req := range api.Artifacts() {
		if p, ok := found[req]; ok {
			members = append(members, archive.Member{Name: req, Path: p})
		}
	}
	zipPath := filepath.Join(root, api.ResultsArchiveName)
	if err := archive.Pack(zipPath, members); err != nil {
		return "", err
	}
	return zipPath, nil
}
