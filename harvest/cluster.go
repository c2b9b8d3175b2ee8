package harvest

import (
	"sort"

	"github.com/fwojciec/rulekit"
)

// mergeByCanonicalURL collapses candidates sharing a canonical URL before
// any hashing is attempted. The best-scored candidate survives (tie-break:
// larger area, then earliest encounter order). Input order is encounter
// order; output preserves the survivors' encounter order.
func mergeByCanonicalURL(candidates []rulekit.ImageCandidate, record func(dropped rulekit.ImageCandidate)) []rulekit.ImageCandidate {
	best := make(map[string]int, len(candidates))
	merged := make([]rulekit.ImageCandidate, 0, len(candidates))

	for _, cand := range candidates {
		idx, seen := best[cand.CanonicalURL]
		if !seen {
			best[cand.CanonicalURL] = len(merged)
			merged = append(merged, cand)
			continue
		}
		if better(cand, merged[idx]) {
			if record != nil {
				record(merged[idx])
			}
			// Keep the original encounter slot for determinism.
			merged[idx] = cand
		} else if record != nil {
			record(cand)
		}
	}
	return merged
}

// better reports whether a should replace b as a duplicate-group survivor:
// higher final score, then larger pixel area. Encounter order breaks the
// final tie, so an equal later candidate never replaces an earlier one.
func better(a, b rulekit.ImageCandidate) bool {
	if a.FinalScore != b.FinalScore {
		return a.FinalScore > b.FinalScore
	}
	return a.Area() > b.Area()
}

// clusterByHash groups candidates by pairwise Hamming distance on their
// perceptual hashes using transitive closure (union-find), so the result
// is symmetric and independent of input order beyond the deterministic
// encounter tie-break. Candidates whose hash could not be computed
// (HashZero) are unclusterable and form singleton clusters.
func clusterByHash(candidates []rulekit.ImageCandidate, maxDistance int) []rulekit.DedupeCluster {
	n := len(candidates)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) {
		ri, rj := find(i), find(j)
		if ri != rj {
			// Attach the later root under the earlier one so cluster
			// identity follows encounter order.
			if ri > rj {
				ri, rj = rj, ri
			}
			parent[rj] = ri
		}
	}

	for i := 0; i < n; i++ {
		if candidates[i].Hash == rulekit.HashZero {
			continue
		}
		for j := i + 1; j < n; j++ {
			if candidates[j].Hash == rulekit.HashZero {
				continue
			}
			if candidates[i].Hash.Distance(candidates[j].Hash) <= maxDistance {
				union(i, j)
			}
		}
	}

	groups := make(map[int][]int, n)
	roots := make([]int, 0, n)
	for i := 0; i < n; i++ {
		root := find(i)
		if _, ok := groups[root]; !ok {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], i)
	}
	sort.Ints(roots)

	clusters := make([]rulekit.DedupeCluster, 0, len(roots))
	for _, root := range roots {
		members := groups[root]
		repIdx := members[0]
		for _, idx := range members[1:] {
			if better(candidates[idx], candidates[repIdx]) {
				repIdx = idx
			}
		}

		cluster := rulekit.DedupeCluster{
			Representative: candidates[repIdx],
			Members:        make([]rulekit.ImageCandidate, 0, len(members)),
		}
		for _, idx := range members {
			cluster.Members = append(cluster.Members, candidates[idx])
		}
		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				a, b := candidates[members[i]], candidates[members[j]]
				if a.Hash == rulekit.HashZero || b.Hash == rulekit.HashZero {
					continue
				}
				if d := a.Hash.Distance(b.Hash); d > cluster.MaxPairwiseDistance {
					cluster.MaxPairwiseDistance = d
				}
			}
		}
		clusters = append(clusters, cluster)
	}
	return clusters
}
