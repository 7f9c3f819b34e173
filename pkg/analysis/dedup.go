package analysis

import (
	"sort"

	"github.com/soundprediction/go-livemem/pkg/types"
)

// Duplicate detection works by projecting a hashable equivalence key per
// node and grouping by key, so one pass over the nodes replaces pairwise
// comparison.

type keyRule struct {
	rule types.MatchRule
	key  func(*types.MemoryNode) string
}

// pairRules are the equivalence rules used for pair reporting, strongest
// first.
var pairRules = []keyRule{
	{types.MatchExactDuplicate, func(n *types.MemoryNode) string { return n.Content }},
	{types.MatchSameName, func(n *types.MemoryNode) string { return n.Name }},
	{types.MatchSameProjectCategory, func(n *types.MemoryNode) string {
		if n.Project == "" || n.Category == "" {
			return ""
		}
		return n.Project + "\x00" + n.Category
	}},
}

// groupRules adds evaluation grouping for consolidation. Nodes produced by
// the same evaluation are merge candidates even when content and name
// differ.
var groupRules = append(pairRules, keyRule{
	types.MatchSameEvaluation,
	func(n *types.MemoryNode) string { return n.EvaluationID },
})

// DuplicatePairs returns every unordered pair of nodes flagged by one of
// the equivalence rules, each pair reported exactly once at its
// highest-priority matching rule, ordered so ID1 < ID2.
func DuplicatePairs(nodes []*types.MemoryNode) []types.DuplicatePair {
	var pairs []types.DuplicatePair
	seen := make(map[[2]string]struct{})

	for _, rule := range pairRules {
		for _, group := range groupByKey(nodes, rule.key) {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					id1, id2 := group[i].ID, group[j].ID
					if id2 < id1 {
						id1, id2 = id2, id1
					}
					pk := [2]string{id1, id2}
					if _, ok := seen[pk]; ok {
						continue
					}
					seen[pk] = struct{}{}
					pairs = append(pairs, types.DuplicatePair{ID1: id1, ID2: id2, Rule: rule.rule})
				}
			}
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].ID1 != pairs[j].ID1 {
			return pairs[i].ID1 < pairs[j].ID1
		}
		return pairs[i].ID2 < pairs[j].ID2
	})
	return pairs
}

// GroupDuplicates partitions nodes into consolidation groups. Rules apply
// strongest first and each node joins at most one group per pass, so a
// single maintenance run never merges the same node twice.
func GroupDuplicates(nodes []*types.MemoryNode) []*types.DuplicateGroup {
	var groups []*types.DuplicateGroup
	claimed := make(map[string]struct{})

	for _, rule := range groupRules {
		byKey := groupByKey(nodes, rule.key)

		keys := make([]string, 0, len(byKey))
		for key := range byKey {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			var free []*types.MemoryNode
			for _, node := range byKey[key] {
				if _, ok := claimed[node.ID]; !ok {
					free = append(free, node)
				}
			}
			if len(free) < 2 {
				continue
			}
			for _, node := range free {
				claimed[node.ID] = struct{}{}
			}
			sort.Slice(free, func(i, j int) bool { return free[i].ID < free[j].ID })
			groups = append(groups, &types.DuplicateGroup{
				Rule:  rule.rule,
				Key:   key,
				Nodes: free,
			})
		}
	}
	return groups
}

func groupByKey(nodes []*types.MemoryNode, key func(*types.MemoryNode) string) map[string][]*types.MemoryNode {
	byKey := make(map[string][]*types.MemoryNode)
	for _, node := range nodes {
		k := key(node)
		if k == "" {
			continue
		}
		byKey[k] = append(byKey[k], node)
	}
	return byKey
}
