package scope

import (
	"fmt"
	"strings"
)

const (
	defaultPageSize = 20
	// MaxPageSize is the page size ceiling used when none is configured.
	MaxPageSize = 100
)

// Filter accumulates AND-combined WHERE clauses. The scope predicate always
// comes first so caller filters can only narrow it.
type Filter struct {
	clauses []string
	args    []interface{}
	argIdx  int
}

// NewFilter starts a filter constrained by s.
func NewFilter(s Scope, cols Columns) *Filter {
	f := &Filter{argIdx: 1}
	clause, args, next := s.Predicate(cols, f.argIdx)
	if clause != "" {
		f.clauses = append(f.clauses, clause)
		f.args = append(f.args, args...)
	}
	f.argIdx = next
	return f
}

// Equals adds column = value.
func (f *Filter) Equals(column string, value interface{}) {
	f.Cond(column+" = $%d", value)
}

// Cond adds a clause whose single %d verb is replaced by the next parameter index.
func (f *Filter) Cond(format string, value interface{}) {
	f.clauses = append(f.clauses, fmt.Sprintf(format, f.argIdx))
	f.args = append(f.args, value)
	f.argIdx++
}

// Search adds a substring match over any of the columns.
func (f *Filter) Search(term string, columns ...string) {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return
	}
	parts := make([]string, 0, len(columns))
	for _, col := range columns {
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", col, f.argIdx))
	}
	f.clauses = append(f.clauses, "("+strings.Join(parts, " OR ")+")")
	f.args = append(f.args, "%"+term+"%")
	f.argIdx++
}

// Where renders the WHERE clause, or an empty string when unrestricted.
func (f *Filter) Where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.clauses, " AND ")
}

// Args returns the positional arguments in order.
func (f *Filter) Args() []interface{} {
	return f.args
}

// NextArg returns the next free parameter index, e.g. for LIMIT/OFFSET.
func (f *Filter) NextArg() int {
	return f.argIdx
}

// Page is a clamped offset/limit request.
type Page struct {
	Page     int
	PageSize int
}

// NewPage clamps page to at least 1 and size into [1, maxSize], defaulting to 20.
func NewPage(page, size, maxSize int) Page {
	if maxSize < 1 {
		maxSize = MaxPageSize
	}
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxSize {
		size = maxSize
	}
	return Page{Page: page, PageSize: size}
}

// Offset returns the row offset of the page.
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages returns the page count for total rows.
func (p Page) TotalPages(total int) int {
	if p.PageSize < 1 {
		return 0
	}
	return (total + p.PageSize - 1) / p.PageSize
}
