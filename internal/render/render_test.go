package render_test

import (
	"strings"
	"testing"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/render"
)

func programTable() dyntable.Table {
	return dyntable.Table{
		Title:        "Tuition Comparison",
		DetailPageID: 7,
		Columns: []dyntable.Column{
			{ID: "uni", Name: "University", Type: dyntable.TypeText},
			{ID: "fee", Name: "Fee", Type: dyntable.TypeNumber},
			{ID: "site", Name: "Website", Type: dyntable.TypeLink},
		},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"uni": "MIT", "fee": float64(50000), "site": "https://mit.edu"}},
			{ID: "r2", Data: map[string]any{"uni": "ETH Zurich", "fee": float64(1500), "site": "https://ethz.ch"}},
			{ID: "r3", Data: map[string]any{"uni": "NUS", "fee": float64(30000), "site": "https://nus.edu.sg"}},
		},
	}
}

func rowIDs(v render.View) []string {
	ids := make([]string, len(v.Rows))
	for i, r := range v.Rows {
		ids[i] = r.ID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRender_HeadersAndSortability(t *testing.T) {
	v := render.Render(programTable(), render.Options{})
	if len(v.Headers) != 3 {
		t.Fatalf("got %d headers", len(v.Headers))
	}
	if !v.Headers[0].Sortable || !v.Headers[1].Sortable {
		t.Error("text and number columns must be sortable")
	}
	if v.Headers[2].Sortable {
		t.Error("link columns must not be sortable")
	}
}

func TestRender_SortAscDescReverses(t *testing.T) {
	tbl := programTable()

	asc := render.Render(tbl, render.Options{SortKey: "fee", SortDir: render.SortAsc})
	if got := rowIDs(asc); !equalIDs(got, []string{"r2", "r3", "r1"}) {
		t.Fatalf("asc order = %v", got)
	}

	desc := render.Render(tbl, render.Options{SortKey: "fee", SortDir: render.SortDesc})
	if got := rowIDs(desc); !equalIDs(got, []string{"r1", "r3", "r2"}) {
		t.Fatalf("desc order = %v", got)
	}
}

func TestRender_SortByTextColumn(t *testing.T) {
	tbl := programTable()

	asc := render.Render(tbl, render.Options{SortKey: "uni", SortDir: render.SortAsc})
	if got := rowIDs(asc); !equalIDs(got, []string{"r2", "r1", "r3"}) {
		t.Fatalf("asc order = %v", got)
	}

	desc := render.Render(tbl, render.Options{SortKey: "uni", SortDir: render.SortDesc})
	if got := rowIDs(desc); !equalIDs(got, []string{"r3", "r1", "r2"}) {
		t.Fatalf("desc order = %v", got)
	}
}

func TestRender_SortByUnsortableColumnIgnored(t *testing.T) {
	v := render.Render(programTable(), render.Options{SortKey: "site", SortDir: render.SortAsc})
	if got := rowIDs(v); !equalIDs(got, []string{"r1", "r2", "r3"}) {
		t.Errorf("stored order disturbed: %v", got)
	}
}

func TestRender_SearchMatchesSingleRow(t *testing.T) {
	tbl := programTable()

	v := render.Render(tbl, render.Options{Query: "zurich"})
	if got := rowIDs(v); !equalIDs(got, []string{"r2"}) {
		t.Fatalf("search result = %v, want [r2]", got)
	}

	// Clearing the search restores the full set in stored order.
	cleared := render.Render(tbl, render.Options{})
	if got := rowIDs(cleared); !equalIDs(got, []string{"r1", "r2", "r3"}) {
		t.Errorf("cleared search = %v", got)
	}
}

func TestRender_SearchThenSort(t *testing.T) {
	// Filter runs over the full row set, then the sort applies to the
	// filtered subset.
	tbl := programTable()
	v := render.Render(tbl, render.Options{Query: "edu", SortKey: "fee", SortDir: render.SortDesc})
	if got := rowIDs(v); !equalIDs(got, []string{"r1", "r3"}) {
		t.Errorf("filtered+sorted = %v, want [r1 r3]", got)
	}
}

func TestRender_SearchMatchesNumericCells(t *testing.T) {
	v := render.Render(programTable(), render.Options{Query: "50000"})
	if got := rowIDs(v); !equalIDs(got, []string{"r1"}) {
		t.Errorf("numeric search = %v", got)
	}
}

func TestRender_EmptyStates(t *testing.T) {
	tbl := programTable()

	noMatch := render.Render(tbl, render.Options{Query: "harvard"})
	if noMatch.Empty != render.EmptyNoMatches {
		t.Errorf("empty = %q, want %q", noMatch.Empty, render.EmptyNoMatches)
	}
	if noMatch.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", noMatch.TotalRows)
	}

	tbl.Rows = nil
	noData := render.Render(tbl, render.Options{})
	if noData.Empty != render.EmptyNoData {
		t.Errorf("empty = %q, want %q", noData.Empty, render.EmptyNoData)
	}
}

func TestRender_MissingValuesRenderPlaceholder(t *testing.T) {
	tbl := programTable()
	// Simulate a column added after the rows existed.
	tbl.Columns = append(tbl.Columns, dyntable.Column{ID: "rank", Name: "Ranking", Type: dyntable.TypeNumber})

	v := render.Render(tbl, render.Options{})
	for _, r := range v.Rows {
		cell := r.Cells[3]
		if !cell.Empty || cell.Text != render.Placeholder {
			t.Fatalf("missing value rendered as %+v", cell)
		}
	}
}

func TestRender_MalformedCellDoesNotPanic(t *testing.T) {
	tbl := programTable()
	tbl.Rows[0].Data["uni"] = map[string]any{"unexpected": "shape"}
	tbl.Rows[1].Data["fee"] = []any{1, 2, 3}

	v := render.Render(tbl, render.Options{SortKey: "fee", SortDir: render.SortAsc})
	for _, r := range v.Rows {
		if r.ID == "r1" && !r.Cells[0].Empty {
			t.Errorf("composite value should render empty, got %+v", r.Cells[0])
		}
	}
}

func TestRender_RichTextSanitized(t *testing.T) {
	tbl := dyntable.Table{
		Title:        "Scholarships",
		DetailPageID: 7,
		Columns:      []dyntable.Column{{ID: "n", Name: "Notes", Type: dyntable.TypeRichText}},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"n": "**Full ride** <script>alert(1)</script>"}},
			{ID: "r2", Data: map[string]any{"n": `<a href="javascript:steal()">apply</a>`}},
		},
	}

	v := render.Render(tbl, render.Options{})
	first := v.Rows[0].Cells[0].HTML
	if strings.Contains(first, "<script") {
		t.Fatalf("script tag survived sanitization: %q", first)
	}
	if !strings.Contains(first, "<strong>Full ride</strong>") {
		t.Errorf("markdown formatting lost: %q", first)
	}
	second := v.Rows[1].Cells[0].HTML
	if strings.Contains(strings.ToLower(second), "javascript:") {
		t.Errorf("javascript href survived sanitization: %q", second)
	}
}

func TestRender_BooleanAndDateCells(t *testing.T) {
	tbl := dyntable.Table{
		Title:        "Intakes",
		DetailPageID: 7,
		Columns: []dyntable.Column{
			{ID: "open", Name: "Open", Type: dyntable.TypeBoolean},
			{ID: "due", Name: "Deadline", Type: dyntable.TypeDate},
		},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"open": true, "due": "2026-01-15"}},
			{ID: "r2", Data: map[string]any{"open": "no", "due": "soon"}},
		},
	}

	v := render.Render(tbl, render.Options{})
	if v.Rows[0].Cells[0].Text != "Yes" || v.Rows[1].Cells[0].Text != "No" {
		t.Errorf("boolean cells = %q / %q", v.Rows[0].Cells[0].Text, v.Rows[1].Cells[0].Text)
	}
	if v.Rows[0].Cells[1].Text != "Jan 15, 2026" {
		t.Errorf("date cell = %q", v.Rows[0].Cells[1].Text)
	}
	if v.Rows[1].Cells[1].Text != "soon" {
		t.Errorf("unparseable date should pass through, got %q", v.Rows[1].Cells[1].Text)
	}
}
