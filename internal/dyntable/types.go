package dyntable

import (
	"encoding/json"
	"fmt"
	"time"
)

// ColumnType is the declared data kind of a table column. It drives both
// the admin input widget and the render strategy.
type ColumnType string

const (
	TypeText     ColumnType = "text"
	TypeNumber   ColumnType = "number"
	TypeImage    ColumnType = "image"
	TypeLink     ColumnType = "link"
	TypeRichText ColumnType = "richtext"

	// Accepted by the renderer only. Tables with these types cannot be
	// created through the builder yet; stored data that carries them still
	// renders.
	TypeBoolean ColumnType = "boolean"
	TypeDate    ColumnType = "date"
)

// Column is a user-defined column of a comparison table. The ID is stable
// across edits and keys cell values in every row.
type Column struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Type  ColumnType `json:"type"`
	Width int        `json:"width,omitempty"`
}

// Row holds one row of cell values keyed by column ID. The keyed map is the
// canonical in-memory representation; the positional array form only exists
// on the wire (see MarshalJSON on Table).
type Row struct {
	ID   string
	Data map[string]any
}

// Table is a full dynamic-table definition: metadata plus ordered columns
// and rows. It is always saved and loaded as one unit.
type Table struct {
	ID           int64
	Title        string
	Description  string
	IconURL      string
	DetailPageID int64
	Columns      []Column
	Rows         []Row
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// wireTable is the JSON contract: rows carry a positional data array
// aligned to column order.
type wireTable struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	IconURL      string    `json:"iconUrl,omitempty"`
	DetailPageID int64     `json:"detailPageId"`
	Columns      []Column  `json:"columns"`
	Rows         []wireRow `json:"rows"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type wireRow struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON serializes rows in positional form aligned to column order.
// Cell values for deleted columns do not survive the trip.
func (t Table) MarshalJSON() ([]byte, error) {
	w := wireTable{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		IconURL:      t.IconURL,
		DetailPageID: t.DetailPageID,
		Columns:      t.Columns,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	if w.Columns == nil {
		w.Columns = []Column{}
	}
	w.Rows = make([]wireRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		data, err := json.Marshal(PositionalData(t.Columns, r))
		if err != nil {
			return nil, fmt.Errorf("marshal row %s: %w", r.ID, err)
		}
		w.Rows = append(w.Rows, wireRow{ID: r.ID, Data: data})
	}
	return json.Marshal(w)
}

// UnmarshalJSON accepts both row-data shapes that occur in the wild: the
// canonical positional array, and a map keyed by column ID. Either way the
// in-memory result is the keyed form.
func (t *Table) UnmarshalJSON(b []byte) error {
	var w wireTable
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	t.ID = w.ID
	t.Title = w.Title
	t.Description = w.Description
	t.IconURL = w.IconURL
	t.DetailPageID = w.DetailPageID
	t.Columns = w.Columns
	t.CreatedAt = w.CreatedAt
	t.UpdatedAt = w.UpdatedAt
	t.Rows = make([]Row, 0, len(w.Rows))
	for _, wr := range w.Rows {
		row, err := rowFromWire(t.Columns, wr)
		if err != nil {
			return err
		}
		t.Rows = append(t.Rows, row)
	}
	return nil
}

func rowFromWire(cols []Column, wr wireRow) (Row, error) {
	if len(wr.Data) == 0 {
		return Row{ID: wr.ID, Data: map[string]any{}}, nil
	}
	var arr []any
	if err := json.Unmarshal(wr.Data, &arr); err == nil {
		return RowFromPositional(cols, wr.ID, arr), nil
	}
	var keyed map[string]any
	if err := json.Unmarshal(wr.Data, &keyed); err == nil {
		if keyed == nil {
			keyed = map[string]any{}
		}
		return Row{ID: wr.ID, Data: keyed}, nil
	}
	return Row{}, fmt.Errorf("row %s: data is neither an array nor an object", wr.ID)
}

// Clone returns a deep copy. The builder edits copies so that a failed save
// never corrupts the caller's table.
func (t Table) Clone() Table {
	out := t
	out.Columns = append([]Column(nil), t.Columns...)
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// Clone returns a copy of the row with its own data map.
func (r Row) Clone() Row {
	data := make(map[string]any, len(r.Data))
	for k, v := range r.Data {
		data[k] = v
	}
	return Row{ID: r.ID, Data: data}
}

// ColumnByID returns the column with the given ID, if present.
func (t Table) ColumnByID(id string) (Column, bool) {
	for _, c := range t.Columns {
		if c.ID == id {
			return c, true
		}
	}
	return Column{}, false
}
