// internal/logutil/logutil.go
// Package logutil centralizes the klog verbosity levels used by the server
// side so call sites stay greppable.
package logutil

import "k8s.io/klog/v2"

const (
	// DEFAULT is for messages an operator should always see.
	DEFAULT klog.Level = 1
	// VERBOSE covers per-request progress.
	VERBOSE klog.Level = 2
	// DEBUG includes stage summaries and artifact search results.
	DEBUG klog.Level = 3
	// TRACE includes full subprocess output.
	TRACE klog.Level = 4
)
