package rag

import (
	"sort"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// DealHighlight is one high-value deal surfaced to the narrative layer.
type DealHighlight struct {
	Opportunity   string  `json:"opportunity"`
	Account       string  `json:"account"`
	Seller        string  `json:"seller"`
	Gross         float64 `json:"gross"`
	FiscalQuarter string  `json:"fiscal_quarter"`
	Cause         string  `json:"cause,omitempty"`
}

// CauseCount is one win/loss cause with its frequency.
type CauseCount struct {
	Cause string `json:"cause"`
	Count int    `json:"count"`
}

// Highlights carries the top deals by gross value per source plus the most
// frequent win and loss causes. Lists are always non-nil.
type Highlights struct {
	TopWon      []DealHighlight `json:"top_won"`
	TopLost     []DealHighlight `json:"top_lost"`
	TopPipeline []DealHighlight `json:"top_pipeline"`
	WinCauses   []CauseCount    `json:"win_causes"`
	LossCauses  []CauseCount    `json:"loss_causes"`
}

const (
	highlightLimit = 3
	causeLimit     = 5
)

// BuildHighlights extracts the business highlights from the final deal list.
func BuildHighlights(deals []warehouse.Deal) Highlights {
	h := Highlights{
		TopWon:      []DealHighlight{},
		TopLost:     []DealHighlight{},
		TopPipeline: []DealHighlight{},
		WinCauses:   []CauseCount{},
		LossCauses:  []CauseCount{},
	}

	var won, lost, pipeline []warehouse.Deal
	winCauses := map[string]int{}
	lossCauses := map[string]int{}

	for _, d := range deals {
		switch d.Source {
		case warehouse.SourceWon:
			won = append(won, d)
			if d.Cause != "" {
				winCauses[d.Cause]++
			}
		case warehouse.SourceLost:
			lost = append(lost, d)
			if d.Cause != "" {
				lossCauses[d.Cause]++
			}
		case warehouse.SourcePipeline:
			pipeline = append(pipeline, d)
		}
	}

	h.TopWon = topByGross(won, highlightLimit)
	h.TopLost = topByGross(lost, highlightLimit)
	h.TopPipeline = topByGross(pipeline, highlightLimit)
	h.WinCauses = topCauses(winCauses, causeLimit)
	h.LossCauses = topCauses(lossCauses, causeLimit)

	return h
}

func topByGross(deals []warehouse.Deal, limit int) []DealHighlight {
	sorted := make([]warehouse.Deal, len(deals))
	copy(sorted, deals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Gross > sorted[j].Gross
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]DealHighlight, 0, len(sorted))
	for _, d := range sorted {
		out = append(out, DealHighlight{
			Opportunity:   d.Opportunity,
			Account:       d.Account,
			Seller:        d.Seller,
			Gross:         d.Gross,
			FiscalQuarter: d.FiscalQuarter,
			Cause:         d.Cause,
		})
	}
	return out
}

func topCauses(causes map[string]int, limit int) []CauseCount {
	out := make([]CauseCount, 0, len(causes))
	for cause, count := range causes {
		out = append(out, CauseCount{Cause: cause, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Cause < out[j].Cause
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
