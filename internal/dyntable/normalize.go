package dyntable

// Conversion between the canonical keyed row representation and the
// positional array form used on the wire. All conversions go through these
// two functions so the alignment rule lives in exactly one place.

// PositionalData projects a row's keyed data onto the column order.
// Missing cells become nil; values keyed by a column that no longer exists
// are dropped.
func PositionalData(cols []Column, r Row) []any {
	out := make([]any, len(cols))
	for i, c := range cols {
		if v, ok := r.Data[c.ID]; ok {
			out[i] = v
		}
	}
	return out
}

// RowFromPositional builds a keyed row from a positional array. Extra
// trailing values with no matching column are dropped; a short array leaves
// the remaining cells nil.
func RowFromPositional(cols []Column, id string, data []any) Row {
	keyed := make(map[string]any, len(cols))
	for i, c := range cols {
		if i < len(data) {
			keyed[c.ID] = data[i]
		} else {
			keyed[c.ID] = nil
		}
	}
	return Row{ID: id, Data: keyed}
}

// Normalize ensures every row has a defined entry for every current column
// (nil when absent), without touching orphaned entries. After Normalize,
// PositionalData(cols, row) has exactly one slot per column.
func (t *Table) Normalize() {
	for i := range t.Rows {
		if t.Rows[i].Data == nil {
			t.Rows[i].Data = make(map[string]any, len(t.Columns))
		}
		for _, c := range t.Columns {
			if _, ok := t.Rows[i].Data[c.ID]; !ok {
				t.Rows[i].Data[c.ID] = nil
			}
		}
	}
}

// StripOrphans removes row entries keyed by columns that no longer exist.
// Returns the number of cell values removed. Used by the maintenance sweep;
// the builder itself leaves orphans behind on column deletion.
func (t *Table) StripOrphans() int {
	known := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		known[c.ID] = true
	}
	removed := 0
	for i := range t.Rows {
		for k := range t.Rows[i].Data {
			if !known[k] {
				delete(t.Rows[i].Data, k)
				removed++
			}
		}
	}
	return removed
}
