package domain

import (
	"strings"
	"time"
)

// Cycle is a closed conversion path discovered by the cycle search. Path
// starts and ends at the start asset and contains no other repeated asset;
// LegRates holds one rate per edge traversed, including the closing edge.
// TotalRate is the product of all leg rates and ProfitPercent is
// (TotalRate-1)*100. A Cycle is immutable once produced.
type Cycle struct {
	Path          []string  `json:"path"`
	LegRates      []float64 `json:"leg_rates"`
	TotalRate     float64   `json:"total_rate"`
	ProfitPercent float64   `json:"profit_percent"`
}

// PathString renders the cycle path as "USDT -> BTC -> ETH -> USDT". It is
// the key consumers use to identify a cycle across iterations.
func (c Cycle) PathString() string {
	return strings.Join(c.Path, " -> ")
}

// Hops returns the number of edges the cycle traverses.
func (c Cycle) Hops() int {
	return len(c.LegRates)
}

// ArbitrageSnapshot is the best-known set of cycles from one scan iteration,
// ordered by descending profit. Snapshots are replaced wholesale; a snapshot
// handed to a consumer is never patched afterwards.
type ArbitrageSnapshot struct {
	ScanID     string     `json:"scan_id"`
	StartAsset string     `json:"start_asset"`
	Cycles     []Cycle    `json:"cycles"`
	GraphStats GraphStats `json:"graph_stats"`
	CreatedAt  time.Time  `json:"created_at"`
}

// GraphStats carries diagnostic counts about the graph a snapshot was
// computed from.
type GraphStats struct {
	Assets  int `json:"assets"`
	Edges   int `json:"edges"`
	Symbols int `json:"symbols"`
}

// ByPath returns the snapshot's cycles keyed by their path string.
func (s *ArbitrageSnapshot) ByPath() map[string]Cycle {
	if s == nil {
		return map[string]Cycle{}
	}
	m := make(map[string]Cycle, len(s.Cycles))
	for _, c := range s.Cycles {
		m[c.PathString()] = c
	}
	return m
}

// Best returns the most profitable cycle of the snapshot, if any.
func (s *ArbitrageSnapshot) Best() (Cycle, bool) {
	if s == nil || len(s.Cycles) == 0 {
		return Cycle{}, false
	}
	return s.Cycles[0], true
}
