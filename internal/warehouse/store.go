package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Store executes retrieval and aggregate queries against the warehouse.
// Table names come from deployment configuration, never from request input;
// all request-derived values are bound parameters.
type Store struct {
	db              *sql.DB
	dealsTable      string
	embeddingsTable string
	catalogTable    string
}

// StoreConfig holds warehouse connection settings.
type StoreConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DealsTable      string
	EmbeddingsTable string
	CatalogTable    string
}

// NewStore opens a warehouse connection pool.
func NewStore(cfg StoreConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("warehouse DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping warehouse: %w", err)
	}

	return &Store{
		db:              db,
		dealsTable:      cfg.DealsTable,
		embeddingsTable: cfg.EmbeddingsTable,
		catalogTable:    cfg.CatalogTable,
	}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks warehouse connectivity, for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// VectorSearch returns up to topK deals nearest to the query vector,
// restricted by the predicate, ordered by ascending distance.
func (s *Store) VectorSearch(ctx context.Context, vector []float32, topK int, pred Predicate) ([]Deal, error) {
	// $1 = query vector, $2 = limit; the predicate is shifted past them.
	pred = pred.Renumber(2)
	where := ""
	if !pred.IsEmpty() {
		where = "WHERE " + pred.SQL
	}

	query := fmt.Sprintf(`
		SELECT deal_id, source, opportunity, seller, account, segment, portfolio,
		       COALESCE(gross, 0), COALESCE(net, 0), fiscal_quarter,
		       product, product_family, phase, COALESCE(content, ''),
		       COALESCE(cause, ''), COALESCE(cycle_days, 0), COALESCE(idle_days, 0),
		       embedding <=> $1::vector AS distance
		FROM %s
		%s
		ORDER BY distance ASC
		LIMIT $2`, s.embeddingsTable, where)

	args := append([]interface{}{vectorLiteral(vector), topK}, pred.Args...)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var d Deal
		if err := rows.Scan(
			&d.ID, &d.Source, &d.Opportunity, &d.Seller, &d.Account,
			&d.Segment, &d.Portfolio, &d.Gross, &d.Net, &d.FiscalQuarter,
			&d.Product, &d.ProductFamily, &d.Phase, &d.Content,
			&d.Cause, &d.CycleDays, &d.IdleDays, &d.Distance,
		); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}

	return deals, nil
}

// WinLossCounts returns the number of won and lost deals under the predicate.
// The query binds no parameters of its own, so the predicate placeholders are
// used as built ($1..).
func (s *Store) WinLossCounts(ctx context.Context, pred Predicate) (won, lost int, err error) {
	where := ""
	if !pred.IsEmpty() {
		where = "WHERE " + pred.SQL
	}

	query := fmt.Sprintf(`
		SELECT COUNT(*) FILTER (WHERE source = 'won'),
		       COUNT(*) FILTER (WHERE source = 'lost')
		FROM %s
		%s`, s.dealsTable, where)

	row := s.db.QueryRowContext(ctx, query, pred.Args...)
	if err := row.Scan(&won, &lost); err != nil {
		return 0, 0, fmt.Errorf("win/loss counts: %w", err)
	}

	return won, lost, nil
}

// Freshness compares the last refresh of the deals table against the
// embeddings table via the warehouse catalog. Any error yields an empty
// freshness object at the caller; this path is best-effort.
func (s *Store) Freshness(ctx context.Context, staleAfter time.Duration) (Freshness, error) {
	query := fmt.Sprintf(`
		SELECT table_name, last_refreshed_at
		FROM %s
		WHERE table_name = $1 OR table_name = $2`, s.catalogTable)

	rows, err := s.db.QueryContext(ctx, query, s.dealsTable, s.embeddingsTable)
	if err != nil {
		return Freshness{}, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var fr Freshness
	for rows.Next() {
		var name string
		var refreshed time.Time
		if err := rows.Scan(&name, &refreshed); err != nil {
			return Freshness{}, fmt.Errorf("scan catalog row: %w", err)
		}
		switch name {
		case s.dealsTable:
			fr.SourceUpdatedAt = refreshed
		case s.embeddingsTable:
			fr.EmbeddingsUpdatedAt = refreshed
		}
	}
	if err := rows.Err(); err != nil {
		return Freshness{}, fmt.Errorf("iterate catalog: %w", err)
	}

	if fr.SourceUpdatedAt.IsZero() || fr.EmbeddingsUpdatedAt.IsZero() {
		return fr, nil
	}

	lag := fr.SourceUpdatedAt.Sub(fr.EmbeddingsUpdatedAt)
	if lag < 0 {
		lag = 0
	}
	fr.LagHours = lag.Hours()
	fr.Stale = lag >= staleAfter

	return fr, nil
}

// vectorLiteral renders a float32 slice in pgvector input syntax. The literal
// is passed as a bound parameter and cast server-side.
func vectorLiteral(v []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range v {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%g", x)
	}
	b.WriteByte(']')
	return b.String()
}
