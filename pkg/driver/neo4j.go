package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/db"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
	"github.com/soundprediction/go-livemem/pkg/types"
)

// nodeLabel is the label all memory nodes carry in the graph.
const nodeLabel = "Learning"

// Neo4jDriver implements GraphDriver for Neo4j databases.
type Neo4jDriver struct {
	client   neo4j.DriverWithContext
	database string
}

// NewNeo4jDriver creates a new Neo4j driver instance.
func NewNeo4jDriver(uri, username, password, database string) (*Neo4jDriver, error) {
	client, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if database == "" {
		database = "neo4j"
	}

	return &Neo4jDriver{
		client:   client,
		database: database,
	}, nil
}

// Stats returns the aggregate counters for the health report.
func (n *Neo4jDriver) Stats(ctx context.Context) (*StoreStats, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s)
			WITH count(n) AS total,
			     sum(CASE WHEN coalesce(n.archived, false) THEN 1 ELSE 0 END) AS archived,
			     avg(CASE WHEN coalesce(n.archived, false) THEN null ELSE n.relevance_score END) AS avg_relevance
			OPTIONAL MATCH ()-[r]->()
			RETURN total, archived, avg_relevance, count(r) AS edges
		`, nodeLabel)
		res, err := tx.Run(ctx, query, nil)
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return nil, types.NewStoreError("stats", err)
	}

	record := result.(*db.Record)
	stats := &StoreStats{}
	if v, ok := record.Get("total"); ok && v != nil {
		stats.TotalNodes = int(v.(int64))
	}
	if v, ok := record.Get("archived"); ok && v != nil {
		stats.ArchivedCount = int(v.(int64))
	}
	if v, ok := record.Get("edges"); ok && v != nil {
		stats.TotalEdges = int(v.(int64))
	}
	if v, ok := record.Get("avg_relevance"); ok && v != nil {
		if f, ok := v.(float64); ok {
			stats.AverageRelevance = f
		}
	}
	return stats, nil
}

// ActiveNodes returns all non-archived nodes with their incident edge count.
func (n *Neo4jDriver) ActiveNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false
		OPTIONAL MATCH (n)-[r]-()
		WITH n, count(r) AS connections
		RETURN n, connections
	`, nodeLabel)
	return n.collectNodes(ctx, "active nodes", query, nil)
}

// IsolatedNodes returns active nodes with zero incident edges of any kind.
func (n *Neo4jDriver) IsolatedNodes(ctx context.Context) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false AND NOT (n)--()
		RETURN n, 0 AS connections
	`, nodeLabel)
	return n.collectNodes(ctx, "isolated nodes", query, nil)
}

// StaleNodes returns active nodes whose last update (or creation, if never
// updated) precedes touchedBefore.
func (n *Neo4jDriver) StaleNodes(ctx context.Context, touchedBefore time.Time) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false
		  AND coalesce(n.updated_at, n.created_at) < $before
		OPTIONAL MATCH (n)-[r]-()
		WITH n, count(r) AS connections
		RETURN n, connections
	`, nodeLabel)
	return n.collectNodes(ctx, "stale nodes", query, map[string]any{
		"before": touchedBefore.UTC().Format(time.RFC3339),
	})
}

// LowRelevanceNodes returns active nodes with a stored score below threshold.
func (n *Neo4jDriver) LowRelevanceNodes(ctx context.Context, threshold float64) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false AND n.relevance_score < $threshold
		OPTIONAL MATCH (n)-[r]-()
		WITH n, count(r) AS connections
		RETURN n, connections
	`, nodeLabel)
	return n.collectNodes(ctx, "low relevance nodes", query, map[string]any{
		"threshold": threshold,
	})
}

// GetNode retrieves a single node by ID.
func (n *Neo4jDriver) GetNode(ctx context.Context, nodeID string) (*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s {id: $id})
		OPTIONAL MATCH (n)-[r]-()
		WITH n, count(r) AS connections
		RETURN n, connections
	`, nodeLabel)
	nodes, err := n.collectNodes(ctx, "get node", query, map[string]any{"id": nodeID})
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, types.ErrNotFound
	}
	return nodes[0], nil
}

// NodeEdges returns all edges incident to a node.
func (n *Neo4jDriver) NodeEdges(ctx context.Context, nodeID string) ([]*types.MemoryEdge, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (s:%s {id: $id})-[r]-(t)
			RETURN r, startNode(r).id AS source_id, endNode(r).id AS target_id
		`, nodeLabel)
		res, err := tx.Run(ctx, query, map[string]any{"id": nodeID})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, types.NewStoreError("node edges", err)
	}

	records := result.([]*db.Record)
	edges := make([]*types.MemoryEdge, 0, len(records))
	for _, record := range records {
		relationValue, found := record.Get("r")
		if !found {
			continue
		}
		relation := relationValue.(dbtype.Relationship)
		sourceID, _ := record.Get("source_id")
		targetID, _ := record.Get("target_id")
		edges = append(edges, edgeFromRelation(relation, sourceID.(string), targetID.(string)))
	}
	return edges, nil
}

// EdgeExists checks whether an edge of the given kind exists between two
// nodes. Direction is ignored for symmetric kinds.
func (n *Neo4jDriver) EdgeExists(ctx context.Context, sourceID, targetID string, kind types.EdgeKind) (bool, error) {
	arrow := ">"
	if kind.Symmetric() {
		arrow = ""
	}
	query := fmt.Sprintf(`
		MATCH (a:%s {id: $source})-[r:%s]-%s(b:%s {id: $target})
		RETURN r LIMIT 1
	`, nodeLabel, kind, arrow, nodeLabel)
	return n.exists(ctx, "edge exists", query, map[string]any{
		"source": sourceID,
		"target": targetID,
	})
}

// Connected checks for any edge between two nodes in either direction.
func (n *Neo4jDriver) Connected(ctx context.Context, a, b string) (bool, error) {
	query := fmt.Sprintf(`
		MATCH (a:%s {id: $a})--(b:%s {id: $b})
		RETURN 1 LIMIT 1
	`, nodeLabel, nodeLabel)
	return n.exists(ctx, "connected", query, map[string]any{"a": a, "b": b})
}

// ArchiveCandidates returns unarchived nodes created before the cutoff that
// still have at least one incident edge.
func (n *Neo4jDriver) ArchiveCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false
		  AND n.created_at < $before
		  AND (n)--()
		OPTIONAL MATCH (n)-[r]-()
		WITH n, count(r) AS connections
		RETURN n, connections
	`, nodeLabel)
	return n.collectNodes(ctx, "archive candidates", query, map[string]any{
		"before": createdBefore.UTC().Format(time.RFC3339),
	})
}

// DeleteCandidates returns unarchived, isolated nodes created before the
// cutoff.
func (n *Neo4jDriver) DeleteCandidates(ctx context.Context, createdBefore time.Time) ([]*types.MemoryNode, error) {
	query := fmt.Sprintf(`
		MATCH (n:%s)
		WHERE coalesce(n.archived, false) = false
		  AND n.created_at < $before
		  AND NOT (n)--()
		RETURN n, 0 AS connections
	`, nodeLabel)
	return n.collectNodes(ctx, "delete candidates", query, map[string]any{
		"before": createdBefore.UTC().Format(time.RFC3339),
	})
}

// CreateEdges creates the given edges in one transaction.
func (n *Neo4jDriver) CreateEdges(ctx context.Context, edges []*types.MemoryEdge) error {
	if len(edges) == 0 {
		return nil
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, edge := range edges {
			if edge.CreatedAt.IsZero() {
				edge.CreatedAt = time.Now()
			}
			query := fmt.Sprintf(`
				MATCH (s:%s {id: $source}), (t:%s {id: $target})
				MERGE (s)-[r:%s]->(t)
				ON CREATE SET r.id = $id, r.created_at = $created_at,
				              r.reason = $reason, r.day_delta = $day_delta
			`, nodeLabel, nodeLabel, edge.Kind)
			_, err := tx.Run(ctx, query, map[string]any{
				"source":     edge.SourceID,
				"target":     edge.TargetID,
				"id":         edge.ID,
				"created_at": edge.CreatedAt.UTC().Format(time.RFC3339),
				"reason":     edge.Reason,
				"day_delta":  edge.DayDelta,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create edge %s: %w", edge.ID, err)
			}
		}
		return nil, nil
	})
	if err != nil {
		return types.NewStoreError("create edges", err)
	}
	return nil
}

// MergeGroup merges duplicates into the keeper inside one transaction.
func (n *Neo4jDriver) MergeGroup(ctx context.Context, keeperID string, duplicateIDs []string) (*MergeResult, error) {
	if len(duplicateIDs) == 0 {
		return &MergeResult{}, nil
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		merged := &MergeResult{}
		for _, dupID := range duplicateIDs {
			// Reattach external relationships the keeper does not
			// already have. Other group members are not third
			// parties; their edges vanish with the group.
			transfer := fmt.Sprintf(`
				MATCH (k:%s {id: $keeper}), (d:%s {id: $dup})-[r]-(other)
				WHERE other.id <> $keeper AND NOT other.id IN $dups AND NOT (k)--(other)
				MERGE (k)-[m:%s]->(other)
				ON CREATE SET m.id = randomUUID(), m.created_at = $now
				RETURN count(DISTINCT m) AS created
			`, nodeLabel, nodeLabel, types.EdgeMergedConnection)
			res, err := tx.Run(ctx, transfer, map[string]any{
				"keeper": keeperID,
				"dup":    dupID,
				"dups":   duplicateIDs,
				"now":    now,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to transfer edges from %s: %w", dupID, err)
			}
			if record, err := res.Single(ctx); err == nil {
				if created, ok := record.Get("created"); ok {
					merged.EdgesCreated += int(created.(int64))
				}
			}

			// Absorb the duplicate's content and delete it.
			absorb := fmt.Sprintf(`
				MATCH (k:%s {id: $keeper}), (d:%s {id: $dup})
				SET k.merged_content = coalesce(k.merged_content, []) + d.content,
				    k.merge_count = coalesce(k.merge_count, 0) + 1,
				    k.updated_at = $now
				DETACH DELETE d
				RETURN 1 AS merged
			`, nodeLabel, nodeLabel)
			res, err = tx.Run(ctx, absorb, map[string]any{
				"keeper": keeperID,
				"dup":    dupID,
				"now":    now,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to absorb %s: %w", dupID, err)
			}
			if _, err := res.Single(ctx); err != nil {
				return nil, fmt.Errorf("duplicate %s or keeper %s missing: %w", dupID, keeperID, err)
			}
			merged.NodesMerged++
		}
		return merged, nil
	})
	if err != nil {
		return nil, types.NewStoreError("merge group", err)
	}
	return result.(*MergeResult), nil
}

// SetRelevance writes recomputed scores in one transaction.
func (n *Neo4jDriver) SetRelevance(ctx context.Context, scores map[string]float64) error {
	if len(scores) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(scores))
	for id, score := range scores {
		rows = append(rows, map[string]any{"id": id, "score": score})
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			UNWIND $rows AS row
			MATCH (n:%s {id: row.id})
			SET n.relevance_score = row.score
		`, nodeLabel)
		_, err := tx.Run(ctx, query, map[string]any{"rows": rows})
		return nil, err
	})
	if err != nil {
		return types.NewStoreError("set relevance", err)
	}
	return nil
}

// BoostAccess applies the access boost and records the access in a single
// in-store update, so a concurrent recompute cannot be lost.
func (n *Neo4jDriver) BoostAccess(ctx context.Context, nodeID string, factor float64) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s {id: $id})
			SET n.relevance_score = coalesce(n.relevance_score, 0) * $factor,
			    n.last_accessed = $now,
			    n.access_count = coalesce(n.access_count, 0) + 1
			RETURN n.id
		`, nodeLabel)
		res, err := tx.Run(ctx, query, map[string]any{
			"id":     nodeID,
			"factor": factor,
			"now":    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return types.NewStoreError("boost access", err)
	}
	if len(result.([]*db.Record)) == 0 {
		return types.ErrNotFound
	}
	return nil
}

// DecayIdle decays every active node not accessed since idleBefore.
func (n *Neo4jDriver) DecayIdle(ctx context.Context, idleBefore time.Time, factor float64) (int, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s)
			WHERE coalesce(n.archived, false) = false
			  AND coalesce(n.last_accessed, n.created_at) < $before
			SET n.relevance_score = coalesce(n.relevance_score, 0) * $factor
			RETURN count(n) AS decayed
		`, nodeLabel)
		res, err := tx.Run(ctx, query, map[string]any{
			"before": idleBefore.UTC().Format(time.RFC3339),
			"factor": factor,
		})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return 0, types.NewStoreError("decay idle", err)
	}

	record := result.(*db.Record)
	if v, ok := record.Get("decayed"); ok && v != nil {
		return int(v.(int64)), nil
	}
	return 0, nil
}

// ArchiveNodes marks the given nodes archived.
func (n *Neo4jDriver) ArchiveNodes(ctx context.Context, nodeIDs []string, reason string) (int, error) {
	if len(nodeIDs) == 0 {
		return 0, nil
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s)
			WHERE n.id IN $ids AND coalesce(n.archived, false) = false
			SET n.archived = true,
			    n.archived_at = $now,
			    n.archive_reason = $reason
			RETURN count(n) AS archived
		`, nodeLabel)
		res, err := tx.Run(ctx, query, map[string]any{
			"ids":    nodeIDs,
			"now":    time.Now().UTC().Format(time.RFC3339),
			"reason": reason,
		})
		if err != nil {
			return nil, err
		}
		return res.Single(ctx)
	})
	if err != nil {
		return 0, types.NewStoreError("archive nodes", err)
	}

	record := result.(*db.Record)
	if v, ok := record.Get("archived"); ok && v != nil {
		return int(v.(int64)), nil
	}
	return 0, nil
}

// DeleteNodes permanently removes the given nodes and their edges.
func (n *Neo4jDriver) DeleteNodes(ctx context.Context, nodeIDs []string) (int, error) {
	if len(nodeIDs) == 0 {
		return 0, nil
	}

	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := fmt.Sprintf(`
			MATCH (n:%s)
			WHERE n.id IN $ids
			DETACH DELETE n
			RETURN count(n) AS deleted
		`, nodeLabel)
		res, err := tx.Run(ctx, query, map[string]any{"ids": nodeIDs})
		if err != nil {
			return nil, err
		}
		record, err := res.Single(ctx)
		if err != nil {
			return nil, err
		}
		if v, ok := record.Get("deleted"); ok && v != nil {
			return v.(int64), nil
		}
		return int64(0), nil
	})
	if err != nil {
		return 0, types.NewStoreError("delete nodes", err)
	}
	return int(result.(int64)), nil
}

// ExecuteQuery runs a raw Cypher statement, for callers that need queries
// outside the typed contract.
func (n *Neo4jDriver) ExecuteQuery(ctx context.Context, query string, params map[string]any) ([]*db.Record, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, types.NewStoreError("execute query", err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, types.NewStoreError("execute query", err)
	}
	return records, nil
}

// CreateIndices creates the indices maintenance queries depend on.
func (n *Neo4jDriver) CreateIndices(ctx context.Context) error {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		indices := []string{
			fmt.Sprintf("CREATE CONSTRAINT learning_id IF NOT EXISTS FOR (n:%s) REQUIRE n.id IS UNIQUE", nodeLabel),
			fmt.Sprintf("CREATE INDEX learning_created_at IF NOT EXISTS FOR (n:%s) ON (n.created_at)", nodeLabel),
			fmt.Sprintf("CREATE INDEX learning_name IF NOT EXISTS FOR (n:%s) ON (n.name)", nodeLabel),
			fmt.Sprintf("CREATE INDEX learning_relevance IF NOT EXISTS FOR (n:%s) ON (n.relevance_score)", nodeLabel),
		}
		for _, indexQuery := range indices {
			if _, err := tx.Run(ctx, indexQuery, nil); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return err
}

// Close closes the Neo4j driver.
func (n *Neo4jDriver) Close(ctx context.Context) error {
	return n.client.Close(ctx)
}

func (n *Neo4jDriver) collectNodes(ctx context.Context, op, query string, params map[string]any) ([]*types.MemoryNode, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return nil, types.NewStoreError(op, err)
	}

	records := result.([]*db.Record)
	nodes := make([]*types.MemoryNode, 0, len(records))
	for _, record := range records {
		nodeValue, found := record.Get("n")
		if !found {
			continue
		}
		node := nodeFromDBNode(nodeValue.(dbtype.Node))
		if conns, ok := record.Get("connections"); ok && conns != nil {
			node.Connections = int(conns.(int64))
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (n *Neo4jDriver) exists(ctx context.Context, op, query string, params map[string]any) (bool, error) {
	session := n.client.NewSession(ctx, neo4j.SessionConfig{DatabaseName: n.database})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return res.Collect(ctx)
	})
	if err != nil {
		return false, types.NewStoreError(op, err)
	}
	return len(result.([]*db.Record)) > 0, nil
}

// Conversion helpers between graph properties and engine types.

func nodeFromDBNode(node dbtype.Node) *types.MemoryNode {
	props := node.Props
	result := &types.MemoryNode{}

	if id, ok := props["id"].(string); ok {
		result.ID = id
	}
	if name, ok := props["name"].(string); ok {
		result.Name = name
	}
	if content, ok := props["content"].(string); ok {
		result.Content = content
	}
	if category, ok := props["category"].(string); ok {
		result.Category = category
	}
	if subcategory, ok := props["subcategory"].(string); ok {
		result.Subcategory = subcategory
	}
	if project, ok := props["project"].(string); ok {
		result.Project = project
	}
	if importance, ok := props["importance"].(string); ok {
		result.Importance = types.Importance(importance)
	}
	if evaluationID, ok := props["evaluation_id"].(string); ok {
		result.EvaluationID = evaluationID
	}
	if createdAt, ok := parseTimeProp(props["created_at"]); ok {
		result.CreatedAt = createdAt
	}
	if updatedAt, ok := parseTimeProp(props["updated_at"]); ok {
		result.UpdatedAt = &updatedAt
	}
	if lastAccessed, ok := parseTimeProp(props["last_accessed"]); ok {
		result.LastAccessed = &lastAccessed
	}
	if accessCount, ok := props["access_count"].(int64); ok {
		result.AccessCount = int(accessCount)
	}
	if score, ok := props["relevance_score"].(float64); ok {
		result.RelevanceScore = score
	}
	if archived, ok := props["archived"].(bool); ok {
		result.Archived = archived
	}
	if archivedAt, ok := parseTimeProp(props["archived_at"]); ok {
		result.ArchivedAt = &archivedAt
	}
	if reason, ok := props["archive_reason"].(string); ok {
		result.ArchiveReason = reason
	}
	if merged, ok := props["merged_content"].([]any); ok {
		for _, fragment := range merged {
			if s, ok := fragment.(string); ok {
				result.MergedContent = append(result.MergedContent, s)
			}
		}
	}
	if mergeCount, ok := props["merge_count"].(int64); ok {
		result.MergeCount = int(mergeCount)
	}

	return result
}

func edgeFromRelation(relation dbtype.Relationship, sourceID, targetID string) *types.MemoryEdge {
	props := relation.Props
	result := &types.MemoryEdge{
		Kind:     types.EdgeKind(relation.Type),
		SourceID: sourceID,
		TargetID: targetID,
	}

	if id, ok := props["id"].(string); ok {
		result.ID = id
	}
	if createdAt, ok := parseTimeProp(props["created_at"]); ok {
		result.CreatedAt = createdAt
	}
	if reason, ok := props["reason"].(string); ok {
		result.Reason = reason
	}
	if dayDelta, ok := props["day_delta"].(int64); ok {
		result.DayDelta = int(dayDelta)
	}
	return result
}

func parseTimeProp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed, true
		}
	case time.Time:
		return t, true
	case dbtype.LocalDateTime:
		return t.Time(), true
	}
	return time.Time{}, false
}
