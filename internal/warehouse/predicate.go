package warehouse

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDateRange indicates date_end precedes date_start. This is a
// caller-facing validation error, unlike backend faults which degrade to
// empty results.
var ErrInvalidDateRange = errors.New("date_end precedes date_start")

// Predicate is a parameterized WHERE fragment. SQL references placeholders
// $N..; Args holds the bound values in order. Values are never interpolated
// into the SQL text.
type Predicate struct {
	SQL  string
	Args []interface{}
}

// IsEmpty reports whether the predicate has no conditions.
func (p Predicate) IsEmpty() bool {
	return p.SQL == ""
}

var placeholderPattern = regexp.MustCompile(`\$(\d+)`)

// Renumber returns a copy with every placeholder shifted by delta. Queries
// that bind their own parameters before the predicate (the query vector, the
// limit) shift the fragment past them; queries with no preceding parameters
// use the predicate as built.
func (p Predicate) Renumber(delta int) Predicate {
	if delta == 0 || p.IsEmpty() {
		return p
	}
	sql := placeholderPattern.ReplaceAllStringFunc(p.SQL, func(m string) string {
		n, _ := strconv.Atoi(m[1:])
		return "$" + strconv.Itoa(n+delta)
	})
	return Predicate{SQL: sql, Args: p.Args}
}

// BuildPredicate converts a filter context into a parameterized predicate.
// Placeholder numbering starts at $1; callers whose query binds parameters
// ahead of the predicate renumber the fragment.
//
// Precedence: an explicit date range overrides quarter/month-derived bounds;
// year+quarter is stricter than year alone.
func BuildPredicate(f Filters) (Predicate, error) {
	if !f.DateStart.IsZero() && !f.DateEnd.IsZero() && f.DateEnd.Before(f.DateStart) {
		return Predicate{}, ErrInvalidDateRange
	}

	var conds []string
	var args []interface{}

	next := func() int { return len(args) + 1 }

	switch {
	case f.HasDateRange():
		if !f.DateStart.IsZero() {
			conds = append(conds, fmt.Sprintf("closed_at >= $%d", next()))
			args = append(args, f.DateStart)
		}
		if !f.DateEnd.IsZero() {
			conds = append(conds, fmt.Sprintf("closed_at <= $%d", next()))
			args = append(args, f.DateEnd)
		}
	case f.Year != 0:
		start, end := yearBounds(f)
		conds = append(conds, fmt.Sprintf("closed_at >= $%d", next()))
		args = append(args, start)
		conds = append(conds, fmt.Sprintf("closed_at < $%d", next()))
		args = append(args, end)
	}

	if f.Seller != "" {
		conds = append(conds, fmt.Sprintf("lower(seller) = lower($%d)", next()))
		args = append(args, f.Seller)
	}

	if f.Phase != "" {
		conds = append(conds, fmt.Sprintf("phase = $%d", next()))
		args = append(args, f.Phase)
	}

	if f.Source != "" {
		conds = append(conds, fmt.Sprintf("source = $%d", next()))
		args = append(args, f.Source)
	}

	return Predicate{
		SQL:  strings.Join(conds, " AND "),
		Args: args,
	}, nil
}

// yearBounds computes the [start, end) window implied by year plus an
// optional quarter or month. Quarter narrows year; month narrows further.
func yearBounds(f Filters) (time.Time, time.Time) {
	loc := time.UTC

	if f.Month >= 1 && f.Month <= 12 {
		start := time.Date(f.Year, time.Month(f.Month), 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 1, 0)
	}

	if f.Quarter >= 1 && f.Quarter <= 4 {
		startMonth := time.Month((f.Quarter-1)*3 + 1)
		start := time.Date(f.Year, startMonth, 1, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 3, 0)
	}

	start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(1, 0, 0)
}
