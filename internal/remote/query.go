package remote

import (
	"fmt"
	"net/url"
	"strings"
)

// Query is a backend-neutral row filter. The PostgREST client encodes it to a
// query string; the direct-Postgres store renders it as a WHERE clause.
type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

type Filter struct {
	Column string
	Op     string // "eq", "is", "gt"
	Value  any
}

func NewQuery() Query {
	return Query{}
}

func (q Query) Eq(column string, value any) Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: "eq", Value: value})
	return q
}

func (q Query) Is(column string, value any) Query {
	q.Filters = append(q.Filters, Filter{Column: column, Op: "is", Value: value})
	return q
}

func (q Query) Order(column string, desc bool) Query {
	q.OrderBy = column
	q.Desc = desc
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Encode renders the query as PostgREST parameters, e.g.
// contractor_id=eq.42&order=created_at.desc&limit=50.
func (q Query) Encode() string {
	params := url.Values{}
	for _, f := range q.Filters {
		params.Set(f.Column, fmt.Sprintf("%s.%v", f.Op, f.Value))
	}
	if q.OrderBy != "" {
		dir := "asc"
		if q.Desc {
			dir = "desc"
		}
		params.Set("order", q.OrderBy+"."+dir)
	}
	if q.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	return params.Encode()
}

// SQL renders the query as a WHERE/ORDER BY/LIMIT suffix with positional
// placeholders, returning the suffix and the argument list.
func (q Query) SQL() (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(q.Filters))

	for i, f := range q.Filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		switch f.Op {
		case "is":
			if f.Value == nil {
				fmt.Fprintf(&b, "%s IS NULL", f.Column)
				continue
			}
			args = append(args, f.Value)
			fmt.Fprintf(&b, "%s IS $%d", f.Column, len(args))
		case "gt":
			args = append(args, f.Value)
			fmt.Fprintf(&b, "%s > $%d", f.Column, len(args))
		default:
			args = append(args, f.Value)
			fmt.Fprintf(&b, "%s = $%d", f.Column, len(args))
		}
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args
}
