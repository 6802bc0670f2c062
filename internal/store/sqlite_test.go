package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
	"github.com/goabroad-labs/studytables/internal/store"
)

func openTestStore(t *testing.T) *store.SQLite {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestPage(t *testing.T, s store.Store) *site.DetailPage {
	t.Helper()
	p := &site.DetailPage{Title: "MSc in Switzerland", Slug: "msc-switzerland", Published: true}
	if err := s.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create page: %v", err)
	}
	return p
}

func tuitionTable(pageID int64) *dyntable.Table {
	return &dyntable.Table{
		Title:        "Tuition Comparison",
		DetailPageID: pageID,
		Columns: []dyntable.Column{
			{ID: "c1", Name: "University", Type: dyntable.TypeText},
			{ID: "c2", Name: "Fee", Type: dyntable.TypeNumber},
		},
		Rows: []dyntable.Row{
			{ID: "r1", Data: map[string]any{"c1": "MIT", "c2": float64(50000)}},
		},
	}
}

func TestSQLite_TableRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	if err := s.CreateTable(ctx, in); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if in.ID == 0 {
		t.Fatal("id not assigned")
	}
	if in.CreatedAt.IsZero() || in.UpdatedAt.IsZero() {
		t.Error("timestamps not assigned")
	}

	got, err := s.GetTablesByDetailPage(ctx, page.ID)
	if err != nil {
		t.Fatalf("get by detail page: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d tables, want 1", len(got))
	}
	tbl := got[0]
	if tbl.Title != "Tuition Comparison" {
		t.Errorf("title = %q", tbl.Title)
	}
	if len(tbl.Columns) != 2 || tbl.Columns[0].Name != "University" {
		t.Errorf("columns = %+v", tbl.Columns)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows = %+v", tbl.Rows)
	}
	if tbl.Rows[0].Data["c1"] != "MIT" || tbl.Rows[0].Data["c2"] != float64(50000) {
		t.Errorf("row data = %v", tbl.Rows[0].Data)
	}
}

func TestSQLite_CreateRejectsUnknownDetailPage(t *testing.T) {
	s := openTestStore(t)
	err := s.CreateTable(context.Background(), tuitionTable(999))
	if !errors.Is(err, store.ErrInvalidRef) {
		t.Errorf("err = %v, want ErrInvalidRef", err)
	}
}

func TestSQLite_CreateRejectsInvalidTable(t *testing.T) {
	s := openTestStore(t)
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	in.Title = ""
	err := s.CreateTable(context.Background(), in)
	var verr *dyntable.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("err = %v, want ValidationError", err)
	}

	noCols := &dyntable.Table{Title: "x", DetailPageID: page.ID}
	if err := s.CreateTable(context.Background(), noCols); err == nil {
		t.Error("table without columns must be rejected")
	}
}

func TestSQLite_UpdateIsWholesaleReplace(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	if err := s.CreateTable(ctx, in); err != nil {
		t.Fatal(err)
	}

	in.Title = "Living Costs"
	in.Columns = []dyntable.Column{{ID: "c9", Name: "City", Type: dyntable.TypeText}}
	in.Rows = []dyntable.Row{
		{ID: "r9", Data: map[string]any{"c9": "Zurich"}},
		{ID: "r10", Data: map[string]any{"c9": "Boston"}},
	}
	if err := s.UpdateTable(ctx, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := s.GetTable(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Living Costs" || len(got.Columns) != 1 || len(got.Rows) != 2 {
		t.Errorf("wholesale replace incomplete: %+v", got)
	}
	if _, ok := got.Rows[0].Data["c1"]; ok {
		t.Error("old columns leaked into replaced rows")
	}
}

func TestSQLite_UpdateEchoesStoredCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	if err := s.CreateTable(ctx, in); err != nil {
		t.Fatal(err)
	}
	// A decoded PUT payload never carries created_at.
	update := tuitionTable(page.ID)
	update.ID = in.ID
	update.Title = "Living Costs"
	if err := s.UpdateTable(ctx, update); err != nil {
		t.Fatalf("update: %v", err)
	}
	if update.CreatedAt.IsZero() {
		t.Fatal("update left createdAt zero")
	}

	stored, err := s.GetTable(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !update.CreatedAt.Equal(stored.CreatedAt) {
		t.Errorf("createdAt = %v, stored record has %v", update.CreatedAt, stored.CreatedAt)
	}
}

func TestSQLite_UpdateAndDeleteUnknownID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	in.ID = 424242
	if err := s.UpdateTable(ctx, in); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("update err = %v, want ErrNotFound", err)
	}
	if err := s.DeleteTable(ctx, 424242); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("delete err = %v, want ErrNotFound", err)
	}
}

func TestSQLite_DeletePageCascadesTables(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	if err := s.CreateTable(ctx, in); err != nil {
		t.Fatal(err)
	}
	if err := s.DeletePage(ctx, page.ID); err != nil {
		t.Fatalf("delete page: %v", err)
	}
	if _, err := s.GetTable(ctx, in.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("table survived page deletion: %v", err)
	}
}

func TestSQLite_PurgeOrphanCells(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	page := createTestPage(t, s)

	in := tuitionTable(page.ID)
	// A value keyed by a column that no longer exists.
	in.Rows[0].Data["deleted-col"] = "stale"
	if err := s.CreateTable(ctx, in); err != nil {
		t.Fatal(err)
	}

	n, err := s.PurgeOrphanCells(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d values, want 1", n)
	}

	got, err := s.GetTable(ctx, in.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := got.Rows[0].Data["deleted-col"]; ok {
		t.Error("orphaned value still present after purge")
	}
	if got.Rows[0].Data["c1"] != "MIT" {
		t.Error("purge damaged live cell values")
	}

	// Second run finds nothing.
	if n, err := s.PurgeOrphanCells(ctx); err != nil || n != 0 {
		t.Errorf("second purge = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSQLite_Contacts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	plain := &site.Contact{Name: "Ana", Email: "ana@example.com", Message: "Hi"}
	if err := s.CreateContact(ctx, plain); err != nil {
		t.Fatalf("create contact: %v", err)
	}
	b2b := &site.Contact{Kind: site.KindB2B, Name: "Lee", Email: "lee@agency.example", Company: "Agency", Message: "Partnership"}
	if err := s.CreateContact(ctx, b2b); err != nil {
		t.Fatalf("create b2b contact: %v", err)
	}

	if err := s.CreateContact(ctx, &site.Contact{Kind: site.KindB2B, Name: "NoCo", Email: "x@y.z"}); err == nil {
		t.Error("b2b inquiry without company must be rejected")
	}

	all, err := s.ListContacts(ctx, "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all = (%d, %v)", len(all), err)
	}
	onlyB2B, err := s.ListContacts(ctx, site.KindB2B)
	if err != nil || len(onlyB2B) != 1 || onlyB2B[0].Company != "Agency" {
		t.Fatalf("list b2b = (%+v, %v)", onlyB2B, err)
	}
}

func TestSQLite_EmptyPageHasNoTables(t *testing.T) {
	s := openTestStore(t)
	page := createTestPage(t, s)

	got, err := s.GetTablesByDetailPage(context.Background(), page.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("got %d tables, want 0", len(got))
	}
}
