package types

import "time"

// MatchRule identifies which equivalence rule flagged a duplicate pair.
// Rules are ordered by priority: when several rules match the same pair,
// only the highest-priority rule is reported.
type MatchRule string

const (
	MatchExactDuplicate      MatchRule = "exact_duplicate"
	MatchSameName            MatchRule = "same_name"
	MatchSameProjectCategory MatchRule = "same_project_category"
	MatchSameEvaluation      MatchRule = "same_evaluation"
)

// Priority returns the rule's rank; lower is stronger.
func (r MatchRule) Priority() int {
	switch r {
	case MatchExactDuplicate:
		return 0
	case MatchSameName:
		return 1
	case MatchSameProjectCategory:
		return 2
	default:
		return 3
	}
}

// DuplicatePair is one flagged pair of equivalent nodes, ordered so that
// ID1 < ID2.
type DuplicatePair struct {
	ID1  string    `json:"id1"`
	ID2  string    `json:"id2"`
	Rule MatchRule `json:"rule"`
}

// DuplicateGroup is a transient grouping of nodes considered equivalent for
// one analysis pass. It is never persisted.
type DuplicateGroup struct {
	Rule  MatchRule     `json:"rule"`
	Key   string        `json:"key"`
	Nodes []*MemoryNode `json:"nodes"`
}

// HealthReport is a point-in-time snapshot of graph health.
type HealthReport struct {
	TotalNodes       int       `json:"total_nodes"`
	TotalEdges       int       `json:"total_edges"`
	AverageRelevance float64   `json:"average_relevance"`
	IsolatedCount    int       `json:"isolated_count"`
	StaleCount       int       `json:"stale_count"`
	ArchivedCount    int       `json:"archived_count"`
	GeneratedAt      time.Time `json:"generated_at"`

	// HealthScore is (1 - (isolated+stale)/total) * 100 clamped to
	// [0, 100], nil when the graph is empty.
	HealthScore *float64 `json:"health_score"`
}

// ComputeHealthScore derives the health score from the report's counts.
func (r *HealthReport) ComputeHealthScore() {
	if r.TotalNodes == 0 {
		r.HealthScore = nil
		return
	}
	score := (1 - float64(r.IsolatedCount+r.StaleCount)/float64(r.TotalNodes)) * 100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.HealthScore = &score
}

// Stage names a step of the maintenance pipeline.
type Stage string

const (
	StageIdle          Stage = "idle"
	StageAnalyzing     Stage = "analyzing"
	StageConsolidating Stage = "consolidating"
	StageLinking       Stage = "linking"
	StageRescoring     Stage = "rescoring"
	StageArchiving     Stage = "archiving"
	StageReporting     Stage = "reporting"
)

// StageError records a failure in one pipeline stage.
type StageError struct {
	Stage   Stage  `json:"stage"`
	Message string `json:"message"`
}

// MaintenanceReport aggregates the outcome of one maintenance run. It is
// always produced, even on partial failure, so callers can tell exactly
// which mutations were committed.
type MaintenanceReport struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	GroupsConsolidated int `json:"groups_consolidated"`
	NodesMerged        int `json:"nodes_merged"`
	EdgesCreated       int `json:"edges_created"`
	NodesRescored      int `json:"nodes_rescored"`
	NodesArchived      int `json:"nodes_archived"`
	NodesDeleted       int `json:"nodes_deleted"`

	Errors []StageError  `json:"errors,omitempty"`
	Health *HealthReport `json:"health,omitempty"`
}

// TotalActions sums the mutations committed during the run.
func (r *MaintenanceReport) TotalActions() int {
	return r.NodesMerged + r.EdgesCreated + r.NodesArchived + r.NodesDeleted
}
