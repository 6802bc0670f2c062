package maint_test

import (
	"context"
	"testing"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/maint"
	"github.com/goabroad-labs/studytables/internal/site"
	"github.com/goabroad-labs/studytables/internal/store"
)

func TestSweeperPurgesOrphans(t *testing.T) {
	st := store.NewMemory()
	ctx := context.Background()

	page := site.DetailPage{Title: "MSc in USA", Slug: "msc-usa"}
	if err := st.CreatePage(ctx, &page); err != nil {
		t.Fatal(err)
	}

	// A row carrying a value for a column that no longer exists.
	tbl := dyntable.Table{
		Title:        "Tuition Comparison",
		DetailPageID: page.ID,
		Columns: []dyntable.Column{
			{ID: "c1", Name: "University", Type: dyntable.TypeText},
		},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"c1": "MIT", "c9": "stale"}},
		},
	}
	if err := st.CreateTable(ctx, &tbl); err != nil {
		t.Fatal(err)
	}

	s, err := maint.NewSweeper(st, "@hourly")
	if err != nil {
		t.Fatal(err)
	}
	s.RunOnce()

	got, err := st.GetTable(ctx, tbl.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Rows[0].Data["c9"]; ok {
		t.Error("orphaned cell value survived the sweep")
	}
	if got.Rows[0].Data["c1"] != "MIT" {
		t.Errorf("live cell value lost: %v", got.Rows[0].Data)
	}
}

func TestNewSweeperRejectsBadSpec(t *testing.T) {
	if _, err := maint.NewSweeper(store.NewMemory(), "not a cron spec"); err == nil {
		t.Error("expected an error for an invalid schedule")
	}
}
