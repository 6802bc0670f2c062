// Package render turns persisted table definitions into read-only views for
// the public program pages. Filtering and sorting are request-scoped: the
// renderer keeps no state between calls.
package render

import (
	"sort"
	"strings"

	"github.com/goabroad-labs/studytables/internal/dyntable"
)

// SortDir is the sort direction for a rendered view.
type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

// Options are the client-controlled view parameters, taken from query
// parameters on the public endpoint.
type Options struct {
	Query   string
	SortKey string // column ID; ignored unless the column is sortable
	SortDir SortDir
}

// Header describes one rendered column header.
type Header struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Type     dyntable.ColumnType `json:"type"`
	Sortable bool                `json:"sortable"`
	Width    int                 `json:"width,omitempty"`
}

// RenderedRow is one row of rendered cells, aligned to the headers.
type RenderedRow struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// Empty-state discriminators. A table with no rows at all is a different
// situation for the UI than a search that matched nothing.
const (
	EmptyNone      = ""
	EmptyNoData    = "no-data"
	EmptyNoMatches = "no-matches"
)

// View is the fully rendered table.
type View struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	IconURL     string        `json:"iconUrl,omitempty"`
	Headers     []Header      `json:"headers"`
	Rows        []RenderedRow `json:"rows"`
	Empty       string        `json:"empty,omitempty"`
	TotalRows   int           `json:"totalRows"`
}

// sortableTypes are the column types whose headers offer a sort toggle.
var sortableTypes = map[dyntable.ColumnType]bool{
	dyntable.TypeText:    true,
	dyntable.TypeNumber:  true,
	dyntable.TypeDate:    true,
	dyntable.TypeBoolean: true,
}

// Render produces a view of the table: filter over the full row set first,
// then sort the filtered subset, then render each cell by its column type.
// Malformed cell values render as the empty placeholder, never an error.
func Render(t dyntable.Table, opts Options) View {
	v := View{
		Title:       t.Title,
		Description: t.Description,
		IconURL:     t.IconURL,
		Headers:     make([]Header, 0, len(t.Columns)),
		Rows:        []RenderedRow{},
		TotalRows:   len(t.Rows),
	}
	for _, c := range t.Columns {
		v.Headers = append(v.Headers, Header{
			ID:       c.ID,
			Name:     c.Name,
			Type:     c.Type,
			Sortable: sortableTypes[c.Type],
			Width:    c.Width,
		})
	}

	if len(t.Rows) == 0 {
		v.Empty = EmptyNoData
		return v
	}

	rows := filterRows(t.Rows, opts.Query)
	if len(rows) == 0 {
		v.Empty = EmptyNoMatches
		return v
	}
	sortRows(t, rows, opts)

	for _, r := range rows {
		rr := RenderedRow{ID: r.ID, Cells: make([]Cell, 0, len(t.Columns))}
		for _, c := range t.Columns {
			rr.Cells = append(rr.Cells, renderCell(c.Type, r.Data[c.ID]))
		}
		v.Rows = append(v.Rows, rr)
	}
	return v
}

// filterRows keeps rows where any cell, stringified, contains the query
// case-insensitively. An empty query keeps everything. Always works from
// the full row set so a narrowed search can widen again.
func filterRows(rows []dyntable.Row, query string) []dyntable.Row {
	out := make([]dyntable.Row, 0, len(rows))
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return append(out, rows...)
	}
	for _, r := range rows {
		for _, v := range r.Data {
			if strings.Contains(strings.ToLower(stringify(v)), q) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// sortRows sorts in place by the requested column. At most one sort key is
// active; requests naming an unsortable or unknown column leave the stored
// order alone.
func sortRows(t dyntable.Table, rows []dyntable.Row, opts Options) {
	col, ok := t.ColumnByID(opts.SortKey)
	if !ok || !sortableTypes[col.Type] {
		return
	}
	desc := opts.SortDir == SortDesc
	sort.SliceStable(rows, func(i, j int) bool {
		less := lessValue(col.Type, rows[i].Data[col.ID], rows[j].Data[col.ID])
		if desc {
			return lessValue(col.Type, rows[j].Data[col.ID], rows[i].Data[col.ID])
		}
		return less
	})
}

// lessValue compares two cell values for the given column type. Numbers
// compare numerically when both sides parse; everything else falls back to
// plain string comparison. Empty values sort last.
func lessValue(typ dyntable.ColumnType, a, b any) bool {
	as, bs := stringify(a), stringify(b)
	if as == "" || bs == "" {
		return as != "" && bs == ""
	}
	if typ == dyntable.TypeNumber {
		af, aok := toFloat(a)
		bf, bok := toFloat(b)
		if aok && bok {
			return af < bf
		}
	}
	return as < bs
}
