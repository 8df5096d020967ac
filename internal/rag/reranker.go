package rag

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dealsense-ai/insights-engine/internal/warehouse"
)

// RankWeights controls the blended ranking score and contextual boosts.
type RankWeights struct {
	Similarity   float64
	Lexical      float64
	SellerBoost  float64
	SourceBoost  float64
	QuarterBoost float64
}

// DefaultRankWeights is the production blend.
var DefaultRankWeights = RankWeights{
	Similarity:   0.72,
	Lexical:      0.28,
	SellerBoost:  0.12,
	SourceBoost:  0.08,
	QuarterBoost: 0.08,
}

var tokenSplit = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// tokenize lowercases, splits on non-word characters and drops tokens of
// length <= 2 (measured in runes, queries are frequently Portuguese).
func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenSplit.Split(strings.ToLower(text), -1) {
		if len([]rune(tok)) > 2 {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// searchableText concatenates the free-text fields lexical matching runs over.
func searchableText(d warehouse.Deal) string {
	return strings.Join([]string{d.Opportunity, d.Product, d.Segment, d.Portfolio, d.Content}, " ")
}

// lexicalScore is the fraction of unique query tokens present in the
// candidate's text. Zero when either token set is empty.
func lexicalScore(queryTokens map[string]struct{}, d warehouse.Deal) float64 {
	if len(queryTokens) == 0 {
		return 0
	}
	candTokens := tokenize(searchableText(d))
	if len(candTokens) == 0 {
		return 0
	}

	matched := 0
	for tok := range queryTokens {
		if _, ok := candTokens[tok]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

// Rerank reorders candidates by a blend of vector similarity, lexical
// overlap, and contextual boosts. Vector similarity alone ignores exact
// keyword matches and request context, so boosts reward records matching
// the requested seller, source, and fiscal quarter.
//
// The rank score is intentionally not clamped: boosts stacked on high
// similarity may exceed 1.0. The score is ordinal, not probabilistic.
// The sort is stable, so ties keep their retrieval order.
func Rerank(deals []warehouse.Deal, queryText string, filters warehouse.Filters, w RankWeights) []warehouse.Deal {
	queryTokens := tokenize(queryText)
	quarterLabel := filters.FiscalLabel()

	for i := range deals {
		lex := lexicalScore(queryTokens, deals[i])

		boost := 0.0
		if filters.Seller != "" && strings.EqualFold(deals[i].Seller, filters.Seller) {
			boost += w.SellerBoost
		}
		if filters.Source != "" && deals[i].Source == filters.Source {
			boost += w.SourceBoost
		}
		if quarterLabel != "" && deals[i].FiscalQuarter == quarterLabel {
			boost += w.QuarterBoost
		}

		deals[i].LexicalScore = round4(lex)
		deals[i].RankScore = round4(w.Similarity*deals[i].Similarity + w.Lexical*lex + boost)
	}

	sort.SliceStable(deals, func(i, j int) bool {
		return deals[i].RankScore > deals[j].RankScore
	})

	return deals
}
