package actuator

import "github.com/hybridsdn/controller/internal/model"

type adjEntry struct {
	to  model.NodeID
	key model.EdgeKey
}

func buildAdjacency(edges []model.LiveEdge) map[model.NodeID][]adjEntry {
	adj := make(map[model.NodeID][]adjEntry)
	for _, e := range edges {
		adj[e.Key.U] = append(adj[e.Key.U], adjEntry{to: e.Key.V, key: e.Key})
		adj[e.Key.V] = append(adj[e.Key.V], adjEntry{to: e.Key.U, key: e.Key})
	}
	return adj
}

// partial is one in-flight breadth-first path state: where it currently
// sits, the canonical edges it has crossed to get there, and the node set
// it has already visited (so no extension revisits a node).
type partial struct {
	node   model.NodeID
	edges  []model.EdgeKey
	onPath map[model.NodeID]bool
}

// kSimplePaths enumerates up to k loop-free paths from s to d by breadth
// first search, pruning any extension that would put more than maxHops
// nodes on the path and never revisiting an already-on-path node. Paths
// are discovered in non-decreasing length order, BFS's usual property.
func kSimplePaths(adj map[model.NodeID][]adjEntry, s, d model.NodeID, k, maxHops int) [][]model.EdgeKey {
	var found [][]model.EdgeKey
	if k <= 0 {
		return found
	}

	queue := []partial{{node: s, onPath: map[model.NodeID]bool{s: true}}}
	for len(queue) > 0 && len(found) < k {
		cur := queue[0]
		queue = queue[1:]

		if cur.node == d && len(cur.edges) > 0 {
			found = append(found, cur.edges)
			continue
		}
		if len(cur.onPath) >= maxHops {
			continue
		}

		for _, next := range adj[cur.node] {
			if cur.onPath[next.to] {
				continue
			}
			onPath := make(map[model.NodeID]bool, len(cur.onPath)+1)
			for n := range cur.onPath {
				onPath[n] = true
			}
			onPath[next.to] = true

			queue = append(queue, partial{
				node:   next.to,
				edges:  append(append([]model.EdgeKey{}, cur.edges...), next.key),
				onPath: onPath,
			})
		}
	}
	return found
}

// pairKey is an (s,d) flow endpoint pair canonicalized s<=d, since the live
// graph is undirected and a path serves both directions of travel.
type pairKey struct{ s, d model.NodeID }

func canonicalPair(s, d model.NodeID) pairKey {
	if d < s {
		return pairKey{s: d, d: s}
	}
	return pairKey{s: s, d: d}
}

// BuildCandidatePaths enumerates up to k simple paths per distinct (s,d)
// pair among flows, and returns both the path table (fresh path IDs,
// starting at 1) and flows with CandPathIDs repopulated to reference it.
func BuildCandidatePaths(edges []model.LiveEdge, flows []model.FlowDemand, k, maxHops int) (map[int]model.Path, []model.FlowDemand) {
	adj := buildAdjacency(edges)

	paths := make(map[int]model.Path)
	pairIDs := make(map[pairKey][]int)
	nextID := 1

	for _, f := range flows {
		pk := canonicalPair(f.S, f.D)
		if _, done := pairIDs[pk]; done {
			continue
		}
		sequences := kSimplePaths(adj, pk.s, pk.d, k, maxHops)
		var ids []int
		for _, seq := range sequences {
			paths[nextID] = model.Path{PathID: nextID, S: pk.s, D: pk.d, Edges: seq}
			ids = append(ids, nextID)
			nextID++
		}
		pairIDs[pk] = ids
	}

	out := make([]model.FlowDemand, len(flows))
	for i, f := range flows {
		f.CandPathIDs = append([]int{}, pairIDs[canonicalPair(f.S, f.D)]...)
		out[i] = f
	}

	return paths, out
}
