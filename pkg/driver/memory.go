package driver

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// MemoryDriver implements GraphDriver with in-process maps. It backs tests
// and single-process deployments that do not want a Neo4j dependency. All
// operations hold one mutex, so every batch write is atomic by construction.
type MemoryDriver struct {
	mu    sync.Mutex
	nodes map[string]*types.MemoryNode
	edges map[string]*types.MemoryEdge
}

// NewMemoryDriver creates an empty in-memory graph store.
func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{
		nodes: make(map[string]*types.MemoryNode),
		edges: make(map[string]*types.MemoryEdge),
	}
}

// AddNode inserts or replaces a node. Seeding helper, not part of the
// GraphDriver contract.
func (m *MemoryDriver) AddNode(node *types.MemoryNode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *node
	m.nodes[node.ID] = &clone
}

// AddEdge inserts an edge between existing nodes. Seeding helper.
func (m *MemoryDriver) AddEdge(edge *types.MemoryEdge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *edge
	if clone.ID == "" {
		clone.ID = uuid.New().String()
	}
	m.edges[clone.ID] = &clone
}

// NodeCount returns the number of stored nodes. Test helper.
func (m *MemoryDriver) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

// EdgeCount returns the number of stored edges. Test helper.
func (m *MemoryDriver) EdgeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.edges)
}

// Stats returns the aggregate counters for the health report.
func (m *MemoryDriver) Stats(ctx context.Context) (*StoreStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &StoreStats{
		TotalNodes: len(m.nodes),
		TotalEdges: len(m.edges),
	}
	var sum float64
	var active int
	for _, node := range m.nodes {
		if node.Archived {
			stats.ArchivedCount++
			continue
		}
		sum += node.RelevanceScore
		active++
	}
	if active > 0 {
		stats.AverageRelevance = sum / float64(active)
	}
	return stats, nil
}

// ActiveNodes returns all non-archived nodes with connection counts.
func (m *MemoryDriver) ActiveNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived
	}), nil
}

// IsolatedNodes returns active nodes with no incident edges.
func (m *MemoryDriver) IsolatedNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived && m.degreeLocked(n.ID) == 0
	}), nil
}

// StaleNodes returns active nodes last touched before the cutoff.
func (m *MemoryDriver) StaleNodes(ctx context.Context, touchedBefore time.Time) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived && n.LastTouched().Before(touchedBefore)
	}), nil
}

// LowRelevanceNodes returns active nodes scored below threshold.
func (m *MemoryDriver) LowRelevanceNodes(ctx context.Context, threshold float64) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived && n.RelevanceScore < threshold
	}), nil
}

// GetNode retrieves a single node by ID.
func (m *MemoryDriver) GetNode(ctx context.Context, nodeID string) (*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[nodeID]
	if !ok {
		return nil, types.ErrNotFound
	}
	clone := *node
	clone.Connections = m.degreeLocked(nodeID)
	return &clone, nil
}

// NodeEdges returns all edges incident to a node.
func (m *MemoryDriver) NodeEdges(ctx context.Context, nodeID string) ([]*types.MemoryEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var edges []*types.MemoryEdge
	for _, edge := range m.edges {
		if edge.SourceID == nodeID || edge.TargetID == nodeID {
			clone := *edge
			edges = append(edges, &clone)
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID < edges[j].ID })
	return edges, nil
}

// EdgeExists checks for an edge of the given kind between two nodes.
func (m *MemoryDriver) EdgeExists(ctx context.Context, sourceID, targetID string, kind types.EdgeKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, edge := range m.edges {
		if edge.Kind != kind {
			continue
		}
		if edge.SourceID == sourceID && edge.TargetID == targetID {
			return true, nil
		}
		if kind.Symmetric() && edge.SourceID == targetID && edge.TargetID == sourceID {
			return true, nil
		}
	}
	return false, nil
}

// Connected checks for any edge between two nodes in either direction.
func (m *MemoryDriver) Connected(ctx context.Context, a, b string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, edge := range m.edges {
		if (edge.SourceID == a && edge.TargetID == b) || (edge.SourceID == b && edge.TargetID == a) {
			return true, nil
		}
	}
	return false, nil
}

// ArchiveCandidates returns unarchived connected nodes created before the
// cutoff.
func (m *MemoryDriver) ArchiveCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived && n.CreatedAt.Before(createdBefore) && m.degreeLocked(n.ID) > 0
	}), nil
}

// DeleteCandidates returns unarchived isolated nodes created before the
// cutoff.
func (m *MemoryDriver) DeleteCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanLocked(func(n *types.MemoryNode) bool {
		return !n.Archived && n.CreatedAt.Before(createdBefore) && m.degreeLocked(n.ID) == 0
	}), nil
}

// CreateEdges inserts the given edges atomically.
func (m *MemoryDriver) CreateEdges(ctx context.Context, edges []*types.MemoryEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, edge := range edges {
		if _, ok := m.nodes[edge.SourceID]; !ok {
			return types.NewStoreError("create edges", types.ErrNotFound)
		}
		if _, ok := m.nodes[edge.TargetID]; !ok {
			return types.NewStoreError("create edges", types.ErrNotFound)
		}
	}
	for _, edge := range edges {
		clone := *edge
		if clone.ID == "" {
			clone.ID = uuid.New().String()
		}
		if clone.CreatedAt.IsZero() {
			clone.CreatedAt = time.Now()
		}
		m.edges[clone.ID] = &clone
	}
	return nil
}

// MergeGroup merges every duplicate into the keeper atomically.
func (m *MemoryDriver) MergeGroup(ctx context.Context, keeperID string, duplicateIDs []string) (*MergeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keeper, ok := m.nodes[keeperID]
	if !ok {
		return nil, types.NewStoreError("merge group", types.ErrNotFound)
	}
	for _, dupID := range duplicateIDs {
		if _, ok := m.nodes[dupID]; !ok {
			return nil, types.NewStoreError("merge group", types.ErrNotFound)
		}
	}

	dupSet := make(map[string]struct{}, len(duplicateIDs))
	for _, dupID := range duplicateIDs {
		dupSet[dupID] = struct{}{}
	}

	now := time.Now()
	result := &MergeResult{}
	for _, dupID := range duplicateIDs {
		dup := m.nodes[dupID]

		// Reattach relationships to third parties the keeper does not
		// already reach. Edges to other group members vanish with the
		// group, so they are not third parties.
		for id, edge := range m.edges {
			other := ""
			switch {
			case edge.SourceID == dupID:
				other = edge.TargetID
			case edge.TargetID == dupID:
				other = edge.SourceID
			default:
				continue
			}
			delete(m.edges, id)
			if other == keeperID {
				continue
			}
			if _, inGroup := dupSet[other]; inGroup {
				continue
			}
			if m.connectedLocked(keeperID, other) {
				continue
			}
			transferred := &types.MemoryEdge{
				ID:        uuid.New().String(),
				Kind:      types.EdgeMergedConnection,
				SourceID:  keeperID,
				TargetID:  other,
				CreatedAt: now,
			}
			m.edges[transferred.ID] = transferred
			result.EdgesCreated++
		}

		keeper.MergedContent = append(keeper.MergedContent, dup.Content)
		keeper.MergeCount++
		touched := now
		keeper.UpdatedAt = &touched
		delete(m.nodes, dupID)
		result.NodesMerged++
	}
	return result, nil
}

// SetRelevance writes recomputed scores atomically.
func (m *MemoryDriver) SetRelevance(ctx context.Context, scores map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, score := range scores {
		if node, ok := m.nodes[id]; ok {
			node.RelevanceScore = score
		}
	}
	return nil
}

// BoostAccess applies the access boost and records the access.
func (m *MemoryDriver) BoostAccess(ctx context.Context, nodeID string, factor float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	node, ok := m.nodes[nodeID]
	if !ok {
		return types.ErrNotFound
	}
	node.RelevanceScore *= factor
	now := time.Now()
	node.LastAccessed = &now
	node.AccessCount++
	return nil
}

// DecayIdle decays every active node not accessed since idleBefore.
func (m *MemoryDriver) DecayIdle(ctx context.Context, idleBefore time.Time, factor float64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var decayed int
	for _, node := range m.nodes {
		if node.Archived {
			continue
		}
		last := node.CreatedAt
		if node.LastAccessed != nil {
			last = *node.LastAccessed
		}
		if last.Before(idleBefore) {
			node.RelevanceScore *= factor
			decayed++
		}
	}
	return decayed, nil
}

// ArchiveNodes marks the given nodes archived.
func (m *MemoryDriver) ArchiveNodes(ctx context.Context, nodeIDs []string, reason string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var archived int
	for _, id := range nodeIDs {
		node, ok := m.nodes[id]
		if !ok || node.Archived {
			continue
		}
		node.Archived = true
		node.ArchivedAt = &now
		node.ArchiveReason = reason
		archived++
	}
	return archived, nil
}

// DeleteNodes removes the given nodes and their incident edges.
func (m *MemoryDriver) DeleteNodes(ctx context.Context, nodeIDs []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int
	for _, id := range nodeIDs {
		if _, ok := m.nodes[id]; !ok {
			continue
		}
		delete(m.nodes, id)
		for edgeID, edge := range m.edges {
			if edge.SourceID == id || edge.TargetID == id {
				delete(m.edges, edgeID)
			}
		}
		deleted++
	}
	return deleted, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryDriver) Close(ctx context.Context) error {
	return nil
}

func (m *MemoryDriver) scanLocked(keep func(*types.MemoryNode) bool) []*types.MemoryNode {
	var nodes []*types.MemoryNode
	for _, node := range m.nodes {
		if !keep(node) {
			continue
		}
		clone := *node
		clone.Connections = m.degreeLocked(node.ID)
		nodes = append(nodes, &clone)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	return nodes
}

func (m *MemoryDriver) degreeLocked(nodeID string) int {
	var degree int
	for _, edge := range m.edges {
		if edge.SourceID == nodeID || edge.TargetID == nodeID {
			degree++
		}
	}
	return degree
}

func (m *MemoryDriver) connectedLocked(a, b string) bool {
	for _, edge := range m.edges {
		if (edge.SourceID == a && edge.TargetID == b) || (edge.SourceID == b && edge.TargetID == a) {
			return true
		}
	}
	return false
}
