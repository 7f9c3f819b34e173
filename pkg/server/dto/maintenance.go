// Package dto defines the JSON request and response shapes of the HTTP
// surface.
package dto

import (
	"time"

	"github.com/soundprediction/go-livemem/pkg/types"
)

// RunRequest configures an on-demand maintenance run. Zero values fall back
// to the engine defaults.
type RunRequest struct {
	StaleDays             int     `json:"stale_days,omitempty"`
	DeleteDays            int     `json:"delete_days,omitempty"`
	LowRelevanceThreshold float64 `json:"low_relevance_threshold,omitempty"`
	DryRun                bool    `json:"dry_run,omitempty"`
}

// RunResponse wraps a finished run report.
type RunResponse struct {
	Report *types.MaintenanceReport `json:"report"`
}

// AccessResponse acknowledges a recorded access.
type AccessResponse struct {
	NodeID     string    `json:"node_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// DecayResponse reports an idle-decay sweep.
type DecayResponse struct {
	NodesDecayed int `json:"nodes_decayed"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
