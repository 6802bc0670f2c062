package dyntable

import (
	"strings"

	"github.com/google/uuid"
)

// Draft stages the full definition of a table in memory. An operator (or
// the seed tool) applies any number of edits and then calls Table to get a
// validated snapshot for saving; nothing is persisted until then, and a
// rejected edit leaves the draft untouched.
type Draft struct {
	Title        string
	Description  string
	IconURL      string
	DetailPageID int64

	id      int64 // zero until the draft edits an existing table
	columns []Column
	rows    []Row
}

// NewDraft starts an empty draft for a new table.
func NewDraft() *Draft {
	return &Draft{}
}

// EditOf starts a draft from an existing table. The table is copied; the
// original is only replaced when the draft is saved.
func EditOf(t Table) *Draft {
	c := t.Clone()
	return &Draft{
		Title:        c.Title,
		Description:  c.Description,
		IconURL:      c.IconURL,
		DetailPageID: c.DetailPageID,
		id:           c.ID,
		columns:      c.Columns,
		rows:         c.Rows,
	}
}

// Columns returns a copy of the current column list in order.
func (d *Draft) Columns() []Column {
	return append([]Column(nil), d.columns...)
}

// Rows returns a copy of the current row list in order.
func (d *Draft) Rows() []Row {
	out := make([]Row, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Clone()
	}
	return out
}

// AddColumn appends a new column with a fresh ID. The name must be
// non-empty and not collide case-insensitively with an existing column.
func (d *Draft) AddColumn(name string, typ ColumnType) (Column, error) {
	col := Column{ID: uuid.NewString(), Name: strings.TrimSpace(name), Type: typ}
	if err := validateColumn(col); err != nil {
		return Column{}, err
	}
	if d.nameTaken(col.Name, "") {
		return Column{}, validationf("columns", "a column named %q already exists", col.Name)
	}
	d.columns = append(d.columns, col)
	return col, nil
}

// ColumnPatch carries the fields UpdateColumn may change. Nil fields are
// left as they are.
type ColumnPatch struct {
	Name  *string
	Type  *ColumnType
	Width *int
}

// UpdateColumn merges the patch into the column with the given ID. Renames
// follow the same rules as AddColumn. The ID itself never changes, so cell
// values stay attached.
func (d *Draft) UpdateColumn(id string, patch ColumnPatch) error {
	idx := d.columnIndex(id)
	if idx < 0 {
		return validationf("columns", "unknown column %q", id)
	}
	col := d.columns[idx]
	if patch.Name != nil {
		col.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Type != nil {
		col.Type = *patch.Type
	}
	if patch.Width != nil {
		col.Width = *patch.Width
	}
	if err := validateColumn(col); err != nil {
		return err
	}
	if d.nameTaken(col.Name, id) {
		return validationf("columns", "a column named %q already exists", col.Name)
	}
	d.columns[idx] = col
	return nil
}

// DeleteColumn removes the column from the ordered list. Cell values keyed
// by the deleted column stay in the row data; they become unreachable and
// are cleaned up by the maintenance sweep after save. Confirmation is the
// caller's job.
func (d *Draft) DeleteColumn(id string) error {
	idx := d.columnIndex(id)
	if idx < 0 {
		return validationf("columns", "unknown column %q", id)
	}
	d.columns = append(d.columns[:idx], d.columns[idx+1:]...)
	return nil
}

// AddRow appends a row with a fresh ID and an empty cell for every current
// column. Rejected while the draft has no columns.
func (d *Draft) AddRow() (Row, error) {
	if len(d.columns) == 0 {
		return Row{}, validationf("rows", "add a column before adding rows")
	}
	row := Row{ID: uuid.NewString(), Data: make(map[string]any, len(d.columns))}
	for _, c := range d.columns {
		row.Data[c.ID] = nil
	}
	d.rows = append(d.rows, row)
	return row.Clone(), nil
}

// UpdateRow merges the given column-value pairs into the row's data.
// Values for unknown columns are rejected rather than silently stored.
func (d *Draft) UpdateRow(id string, data map[string]any) error {
	idx := d.rowIndex(id)
	if idx < 0 {
		return validationf("rows", "unknown row %q", id)
	}
	for colID := range data {
		if d.columnIndex(colID) < 0 {
			return validationf("rows", "unknown column %q in row data", colID)
		}
	}
	for colID, v := range data {
		d.rows[idx].Data[colID] = v
	}
	return nil
}

// DeleteRow removes the row. Confirmation is the caller's job.
func (d *Draft) DeleteRow(id string) error {
	idx := d.rowIndex(id)
	if idx < 0 {
		return validationf("rows", "unknown row %q", id)
	}
	d.rows = append(d.rows[:idx], d.rows[idx+1:]...)
	return nil
}

// MoveRow reorders the row to the given position (clamped to the list).
// Backed by the drag-and-drop gesture in the admin UI.
func (d *Draft) MoveRow(id string, to int) error {
	from := d.rowIndex(id)
	if from < 0 {
		return validationf("rows", "unknown row %q", id)
	}
	if to < 0 {
		to = 0
	}
	if to >= len(d.rows) {
		to = len(d.rows) - 1
	}
	if to == from {
		return nil
	}
	row := d.rows[from]
	rest := append(d.rows[:from:from], d.rows[from+1:]...)
	d.rows = append(rest[:to:to], append([]Row{row}, rest[to:]...)...)
	return nil
}

// Table validates the draft and returns a snapshot ready for a wholesale
// create-or-update. The draft stays editable, so the operator keeps their
// work if the save fails downstream.
func (d *Draft) Table() (Table, error) {
	t := Table{
		ID:           d.id,
		Title:        strings.TrimSpace(d.Title),
		Description:  d.Description,
		IconURL:      d.IconURL,
		DetailPageID: d.DetailPageID,
		Columns:      append([]Column(nil), d.columns...),
		Rows:         make([]Row, len(d.rows)),
	}
	for i, r := range d.rows {
		t.Rows[i] = r.Clone()
	}
	t.Normalize()
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

func (d *Draft) columnIndex(id string) int {
	for i, c := range d.columns {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) rowIndex(id string) int {
	for i, r := range d.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (d *Draft) nameTaken(name, exceptID string) bool {
	for _, c := range d.columns {
		if c.ID != exceptID && strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}
