// pkg/api/status_v1.go
package api

// HealthV1 is the stable JSON schema for GET /health responses.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type HealthV1 struct {
	Status string `json:"status"`
}

// StatusHealthy is the Status value reported by a serving instance.
const StatusHealthy = "healthy"

// ErrorV1 is the stable JSON schema for error responses. MissingFiles is
// populated when processing finished but required artifacts were absent.
type ErrorV1 struct {
	Error        string   `json:"error"`
	MissingFiles []string `json:"missing_files,omitempty"`
}
