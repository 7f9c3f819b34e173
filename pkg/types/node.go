package types

import "time"

// Importance tags how critical a memory node is to the agent.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceNormal Importance = "normal"
	ImportanceLow    Importance = "low"
)

// MemoryNode represents one persisted unit of retained knowledge (a
// "Learning"). The maintenance engine only ever mutates the relevance
// score, the archived fields, and the merge lineage; everything else is
// owned by the external CRUD surface.
type MemoryNode struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Content      string     `json:"content"`
	Category     string     `json:"category,omitempty"`
	Subcategory  string     `json:"subcategory,omitempty"`
	Project      string     `json:"project,omitempty"`
	Importance   Importance `json:"importance,omitempty"`
	EvaluationID string     `json:"evaluation_id,omitempty"`

	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	AccessCount  int        `json:"access_count"`

	RelevanceScore float64 `json:"relevance_score"`

	Archived      bool       `json:"archived"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	ArchiveReason string     `json:"archive_reason,omitempty"`

	// MergedContent accumulates the content of duplicates absorbed into
	// this node during consolidation.
	MergedContent []string `json:"merged_content,omitempty"`
	MergeCount    int      `json:"merge_count"`

	// Connections is the incident edge count at the time the node was
	// loaded. Populated by analysis queries, not stored.
	Connections int `json:"connections,omitempty"`
}

// LastTouched returns the node's last-update timestamp, falling back to the
// creation timestamp for nodes that were never updated. Staleness, keeper
// selection, and age-based scoring all key off this value.
func (n *MemoryNode) LastTouched() time.Time {
	if n.UpdatedAt != nil && !n.UpdatedAt.IsZero() {
		return *n.UpdatedAt
	}
	return n.CreatedAt
}

// AgeDays returns whole days elapsed since the node was last touched.
func (n *MemoryNode) AgeDays(now time.Time) int {
	return int(now.Sub(n.LastTouched()).Hours() / 24)
}
