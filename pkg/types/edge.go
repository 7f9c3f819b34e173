package types

import "time"

// EdgeKind identifies the relationship types the maintenance engine creates
// or inspects. Edges of other kinds may exist in the graph; the engine
// counts them toward connectivity but never touches them.
type EdgeKind string

const (
	// EdgeRelatedTo is a symmetric same-domain association.
	EdgeRelatedTo EdgeKind = "RELATED_TO"
	// EdgeSupersedes points from a newer node to an older node with the
	// same name. It annotates succession; it never triggers deletion.
	EdgeSupersedes EdgeKind = "SUPERSEDES"
	// EdgeMergedConnection preserves a consumed duplicate's external
	// relationship by reattaching it to the group keeper.
	EdgeMergedConnection EdgeKind = "MERGED_CONNECTION"
)

// ReasonSameDomain tags RELATED_TO edges produced by the relation builder.
const ReasonSameDomain = "same_domain"

// MemoryEdge is a typed relationship between two MemoryNodes. RELATED_TO is
// symmetric: existence checks treat (source, target) as unordered.
type MemoryEdge struct {
	ID        string    `json:"id"`
	Kind      EdgeKind  `json:"kind"`
	SourceID  string    `json:"source_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`

	// Reason is set on RELATED_TO edges (e.g. "same_domain").
	Reason string `json:"reason,omitempty"`
	// DayDelta is set on SUPERSEDES edges: days between the creation of
	// the superseded node and its successor.
	DayDelta int `json:"day_delta,omitempty"`
}

// Symmetric reports whether the edge kind ignores direction.
func (k EdgeKind) Symmetric() bool {
	return k == EdgeRelatedTo
}
