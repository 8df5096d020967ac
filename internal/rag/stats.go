package rag

import (
	"math"
	"sort"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// GroupStat is one top-N entry for a seller or account.
type GroupStat struct {
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	TotalGross float64 `json:"total_gross"`
	AvgGross   float64 `json:"avg_gross"`
}

// Stats aggregates a deal list. The zero shape is explicit: maps and lists
// are always non-nil, downstream code indexes into them unconditionally.
type Stats struct {
	Total        int            `json:"total"`
	BySource     map[string]int `json:"by_source"`
	AvgCycleDays float64        `json:"avg_cycle_days"`
	AvgIdleDays  float64        `json:"avg_idle_days"`
	TotalGross   float64        `json:"total_gross"`
	TotalNet     float64        `json:"total_net"`
	TopSellers   []GroupStat    `json:"top_sellers"`
	TopAccounts  []GroupStat    `json:"top_accounts"`
}

const topNLimit = 5

// Summarize reduces a deal list to a Stats bundle. It is a pure function of
// its input. Idle/cycle day averages only consider strictly positive values;
// zero or missing values are excluded from the mean, not treated as zero.
func Summarize(deals []warehouse.Deal) Stats {
	stats := Stats{
		BySource:    map[string]int{},
		TopSellers:  []GroupStat{},
		TopAccounts: []GroupStat{},
	}

	var cycleSum, idleSum float64
	var cycleN, idleN int

	sellerGroups := map[string]*GroupStat{}
	accountGroups := map[string]*GroupStat{}

	for _, d := range deals {
		stats.Total++

		source := d.Source
		if source == "" {
			source = "unknown"
		}
		stats.BySource[source]++

		stats.TotalGross += d.Gross
		stats.TotalNet += d.Net

		if d.CycleDays > 0 {
			cycleSum += d.CycleDays
			cycleN++
		}
		if d.IdleDays > 0 {
			idleSum += d.IdleDays
			idleN++
		}

		accumulate(sellerGroups, d.Seller, d.Gross)
		accumulate(accountGroups, d.Account, d.Gross)
	}

	if cycleN > 0 {
		stats.AvgCycleDays = round2(cycleSum / float64(cycleN))
	}
	if idleN > 0 {
		stats.AvgIdleDays = round2(idleSum / float64(idleN))
	}
	stats.TotalGross = round2(stats.TotalGross)
	stats.TotalNet = round2(stats.TotalNet)

	stats.TopSellers = topGroups(sellerGroups, topNLimit)
	stats.TopAccounts = topGroups(accountGroups, topNLimit)

	return stats
}

func accumulate(groups map[string]*GroupStat, name string, gross float64) {
	if name == "" {
		return
	}
	g, ok := groups[name]
	if !ok {
		g = &GroupStat{Name: name}
		groups[name] = g
	}
	g.Count++
	g.TotalGross += gross
}

// topGroups sorts by frequency descending (name ascending on ties, so output
// is deterministic) and caps at limit.
func topGroups(groups map[string]*GroupStat, limit int) []GroupStat {
	out := make([]GroupStat, 0, len(groups))
	for _, g := range groups {
		g.TotalGross = round2(g.TotalGross)
		g.AvgGross = round2(g.TotalGross / float64(g.Count))
		out = append(out, *g)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
