// Package warehouse provides typed access to the analytics warehouse that
// stores historical deals and their pre-computed embeddings.
package warehouse

import (
	"fmt"
	"time"
)

// Deal source tags.
const (
	SourcePipeline = "pipeline"
	SourceWon      = "won"
	SourceLost     = "lost"
)

// Deal is one historical deal record as returned by vector search.
// Retrieval fills Distance; the ranking stages fill Similarity, RankScore and
// LexicalScore. String fields default to "" and numeric fields to 0 when the
// warehouse column is NULL; downstream code never needs nil checks.
type Deal struct {
	ID            string  `json:"deal_id"`
	Source        string  `json:"source"`
	Opportunity   string  `json:"opportunity"`
	Seller        string  `json:"seller"`
	Account       string  `json:"account"`
	Segment       string  `json:"segment"`
	Portfolio     string  `json:"portfolio"`
	Gross         float64 `json:"gross"`
	Net           float64 `json:"net"`
	FiscalQuarter string  `json:"fiscal_quarter"`
	Product       string  `json:"product"`
	ProductFamily string  `json:"product_family"`
	Phase         string  `json:"phase"`
	Content       string  `json:"content"`
	Cause         string  `json:"cause,omitempty"`
	CycleDays     float64 `json:"cycle_days,omitempty"`
	IdleDays      float64 `json:"idle_days,omitempty"`

	Distance     float64 `json:"distance"`
	Similarity   float64 `json:"similarity"`
	RankScore    float64 `json:"rag_rank_score"`
	LexicalScore float64 `json:"rag_lexical_score"`
}

// Filters is the immutable filter context applied to retrieval and
// aggregate queries. Zero values mean "not set".
type Filters struct {
	Year      int
	Quarter   int
	Month     int
	DateStart time.Time
	DateEnd   time.Time
	Seller    string
	Phase     string
	Source    string
}

// HasDateRange reports whether an explicit date range was requested.
func (f Filters) HasDateRange() bool {
	return !f.DateStart.IsZero() || !f.DateEnd.IsZero()
}

// WithoutDateRange returns a copy with the explicit date bounds cleared.
// Used by the adaptive fallback when a date window yields no outcomes.
func (f Filters) WithoutDateRange() Filters {
	f.DateStart = time.Time{}
	f.DateEnd = time.Time{}
	return f
}

// FiscalLabel returns the FY{yy}-Q{q} label for the filter's year and
// quarter, or "" when either is unset.
func (f Filters) FiscalLabel() string {
	if f.Year == 0 || f.Quarter == 0 {
		return ""
	}
	return fmt.Sprintf("FY%02d-Q%d", f.Year%100, f.Quarter)
}

// Freshness reports how far the embeddings table lags behind its sources.
type Freshness struct {
	SourceUpdatedAt     time.Time `json:"source_updated_at,omitempty"`
	EmbeddingsUpdatedAt time.Time `json:"embeddings_updated_at,omitempty"`
	LagHours            float64   `json:"lag_hours"`
	Stale               bool      `json:"stale"`
}
