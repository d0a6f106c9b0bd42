// Package cycles enumerates profitable conversion cycles in a market graph.
package cycles

import (
	"sort"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// Options bound the cycle search.
type Options struct {
	// StartAsset is the asset every cycle must start and end at.
	StartAsset string
	// MaxPathLength caps the number of hops a cycle may take.
	MaxPathLength int
	// MinProfitPercent filters recorded cycles; negative values surface
	// near-break-even paths.
	MinProfitPercent float64
	// MaxCycles caps the returned list after ranking.
	MaxCycles int
}

// Find performs a depth-bounded backtracking search for simple cycles that
// start and end at opts.StartAsset, ranks them by compounded profit, and
// returns at most opts.MaxCycles entries in descending profit order. When the
// start asset has no outgoing edges the search returns immediately with no
// results.
func Find(graph domain.MarketGraph, opts Options) []domain.Cycle {
	if !graph.HasAsset(opts.StartAsset) {
		return nil
	}

	s := &search{
		graph: graph,
		opts:  opts,
		path:  []string{opts.StartAsset},
		onPath: map[string]bool{
			opts.StartAsset: true,
		},
	}
	s.dfs(opts.StartAsset, 1.0, 0, nil)

	// Stable sort keeps encounter order for equal profits.
	sort.SliceStable(s.found, func(i, j int) bool {
		return s.found[i].ProfitPercent > s.found[j].ProfitPercent
	})
	if len(s.found) > opts.MaxCycles {
		s.found = s.found[:opts.MaxCycles]
	}
	return s.found
}

// search carries the mutable state of one Find invocation. The path buffer
// and onPath set are shared across recursion and restored on backtrack;
// recorded cycles copy them before returning to the caller.
type search struct {
	graph  domain.MarketGraph
	opts   Options
	path   []string
	onPath map[string]bool
	found  []domain.Cycle
}

func (s *search) dfs(current string, accumulated float64, depth int, legRates []float64) {
	if depth >= s.opts.MaxPathLength {
		return
	}

	for neighbor, rate := range s.graph.Edges(current) {
		if neighbor == s.opts.StartAsset && depth >= 1 {
			total := accumulated * rate
			profit := (total - 1.0) * 100
			if profit >= s.opts.MinProfitPercent {
				s.record(total, profit, rate, legRates)
			}
			// Closing the cycle is a leaf; never expand past the start.
			continue
		}
		if s.onPath[neighbor] {
			continue
		}

		s.path = append(s.path, neighbor)
		s.onPath[neighbor] = true
		s.dfs(neighbor, accumulated*rate, depth+1, append(legRates, rate))
		s.onPath[neighbor] = false
		s.path = s.path[:len(s.path)-1]
	}
}

// record copies the live path buffer plus the closing edge into an immutable
// Cycle.
func (s *search) record(total, profit, closingRate float64, legRates []float64) {
	path := make([]string, 0, len(s.path)+1)
	path = append(path, s.path...)
	path = append(path, s.opts.StartAsset)

	legs := make([]float64, 0, len(legRates)+1)
	legs = append(legs, legRates...)
	legs = append(legs, closingRate)

	s.found = append(s.found, domain.Cycle{
		Path:          path,
		LegRates:      legs,
		TotalRate:     total,
		ProfitPercent: profit,
	})
}
