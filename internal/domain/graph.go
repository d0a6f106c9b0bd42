package domain

// MarketGraph is a directed weighted graph over assets. An edge src→dst with
// weight r means 1 unit of src converts into r units of dst after fees. Every
// stored weight is strictly positive and finite; the builder drops anything
// else before insertion. The graph is rebuilt from scratch each iteration and
// never mutated in place once handed to a reader.
type MarketGraph map[string]map[string]float64

// Upsert inserts the edge src→dst, keeping the existing edge when it already
// carries a higher rate. Multiple symbols can quote the same ordered asset
// pair; only the best available conversion is worth keeping.
func (g MarketGraph) Upsert(src, dst string, rate float64) {
	edges, ok := g[src]
	if !ok {
		edges = make(map[string]float64)
		g[src] = edges
	}
	if cur, ok := edges[dst]; !ok || cur < rate {
		edges[dst] = rate
	}
}

// Edges returns the outgoing edges of asset, or nil when the asset is not a
// node of the graph.
func (g MarketGraph) Edges(asset string) map[string]float64 {
	return g[asset]
}

// HasAsset reports whether asset is a node of the graph.
func (g MarketGraph) HasAsset(asset string) bool {
	_, ok := g[asset]
	return ok
}

// NumAssets returns the number of nodes in the graph.
func (g MarketGraph) NumAssets() int {
	return len(g)
}

// NumEdges returns the total number of directed edges in the graph.
func (g MarketGraph) NumEdges() int {
	n := 0
	for _, edges := range g {
		n += len(edges)
	}
	return n
}
