package dyntable_test

import (
	"encoding/json"
	"testing"

	"github.com/goabroad-labs/studytables/internal/dyntable"
)

func sampleTable() dyntable.Table {
	return dyntable.Table{
		ID:           3,
		Title:        "Tuition Comparison",
		DetailPageID: 7,
		Columns: []dyntable.Column{
			{ID: "c1", Name: "University", Type: dyntable.TypeText},
			{ID: "c2", Name: "Fee", Type: dyntable.TypeNumber},
		},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"c1": "MIT", "c2": float64(50000)}},
		},
	}
}

func TestTableJSON_RoundTripPositional(t *testing.T) {
	in := sampleTable()
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	// The wire form carries rows as positional arrays.
	var raw struct {
		Rows []struct {
			ID   string `json:"id"`
			Data []any  `json:"data"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("wire shape: %v", err)
	}
	if len(raw.Rows) != 1 || len(raw.Rows[0].Data) != 2 {
		t.Fatalf("wire rows = %+v, want 1 row with 2 cells", raw.Rows)
	}
	if raw.Rows[0].Data[0] != "MIT" {
		t.Errorf("data[0] = %v, want MIT", raw.Rows[0].Data[0])
	}

	var out dyntable.Table
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Rows[0].Data["c1"] != "MIT" || out.Rows[0].Data["c2"] != float64(50000) {
		t.Errorf("round-trip row data = %v", out.Rows[0].Data)
	}
}

func TestTableJSON_AcceptsKeyedRowData(t *testing.T) {
	payload := `{
		"title": "Tuition Comparison",
		"detailPageId": 7,
		"columns": [
			{"id": "c1", "name": "University", "type": "text"},
			{"id": "c2", "name": "Fee", "type": "number"}
		],
		"rows": [{"id": "r1", "data": {"c2": 50000, "c1": "MIT"}}]
	}`
	var tbl dyntable.Table
	if err := json.Unmarshal([]byte(payload), &tbl); err != nil {
		t.Fatalf("unmarshal keyed form: %v", err)
	}
	if tbl.Rows[0].Data["c1"] != "MIT" {
		t.Errorf("keyed data not preserved: %v", tbl.Rows[0].Data)
	}
}

func TestTableJSON_RejectsMalformedRowData(t *testing.T) {
	payload := `{"title":"x","detailPageId":1,"columns":[],"rows":[{"id":"r1","data":"oops"}]}`
	var tbl dyntable.Table
	if err := json.Unmarshal([]byte(payload), &tbl); err == nil {
		t.Error("scalar row data should not unmarshal")
	}
}

func TestPositionalData_AlignsAndDrops(t *testing.T) {
	cols := []dyntable.Column{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	row := dyntable.Row{ID: "r", Data: map[string]any{"c1": "a", "c3": "c", "gone": "orphan"}}

	got := dyntable.PositionalData(cols, row)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0] != "a" || got[1] != nil || got[2] != "c" {
		t.Errorf("positional = %v", got)
	}
}

func TestRowFromPositional_ShortAndLongArrays(t *testing.T) {
	cols := []dyntable.Column{{ID: "c1"}, {ID: "c2"}}

	short := dyntable.RowFromPositional(cols, "r1", []any{"only"})
	if short.Data["c1"] != "only" || short.Data["c2"] != nil {
		t.Errorf("short = %v", short.Data)
	}
	if len(short.Data) != 2 {
		t.Errorf("short row has %d cells, want one per column", len(short.Data))
	}

	long := dyntable.RowFromPositional(cols, "r2", []any{"a", "b", "extra"})
	if len(long.Data) != 2 {
		t.Errorf("extra trailing value kept: %v", long.Data)
	}
}

func TestNormalize_FillsEveryColumn(t *testing.T) {
	tbl := sampleTable()
	tbl.Rows = append(tbl.Rows, dyntable.Row{ID: "r2", Data: nil})
	tbl.Normalize()

	for _, r := range tbl.Rows {
		if len(dyntable.PositionalData(tbl.Columns, r)) != len(tbl.Columns) {
			t.Fatalf("row %s not aligned after normalize", r.ID)
		}
		for _, c := range tbl.Columns {
			if _, ok := r.Data[c.ID]; !ok {
				t.Errorf("row %s missing cell for %s", r.ID, c.ID)
			}
		}
	}
}

func TestValidate_DuplicateColumnNames(t *testing.T) {
	tbl := sampleTable()
	tbl.Columns[1].Name = "UNIVERSITY"
	if err := tbl.Validate(); err == nil {
		t.Error("case-insensitive duplicate column names must be rejected")
	}
}

func TestEnsureIDs_KeepsExisting(t *testing.T) {
	tbl := sampleTable()
	tbl.Columns = append(tbl.Columns, dyntable.Column{Name: "Website", Type: dyntable.TypeLink})
	tbl.EnsureIDs()

	if tbl.Columns[0].ID != "c1" {
		t.Errorf("existing id rewritten to %s", tbl.Columns[0].ID)
	}
	if tbl.Columns[2].ID == "" {
		t.Error("missing id not assigned")
	}
}
