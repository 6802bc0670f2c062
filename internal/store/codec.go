package store

import (
	"encoding/json"
	"fmt"

	"github.com/goabroad-labs/studytables/internal/dyntable"
)

// Columns and rows are persisted as JSON documents inside the table record:
// with wholesale-replace save semantics there is nothing to gain from
// normalizing cells into their own relation. Rows are stored in the
// canonical keyed form; the positional array only exists on the HTTP wire.

type storedRow struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

func encodeColumns(cols []dyntable.Column) ([]byte, error) {
	if cols == nil {
		cols = []dyntable.Column{}
	}
	b, err := json.Marshal(cols)
	if err != nil {
		return nil, fmt.Errorf("encode columns: %w", err)
	}
	return b, nil
}

func decodeColumns(b []byte) ([]dyntable.Column, error) {
	var cols []dyntable.Column
	if err := json.Unmarshal(b, &cols); err != nil {
		return nil, fmt.Errorf("decode columns: %w", err)
	}
	return cols, nil
}

func encodeRows(rows []dyntable.Row) ([]byte, error) {
	stored := make([]storedRow, len(rows))
	for i, r := range rows {
		stored[i] = storedRow{ID: r.ID, Data: r.Data}
	}
	b, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode rows: %w", err)
	}
	return b, nil
}

func decodeRows(b []byte) ([]dyntable.Row, error) {
	var stored []storedRow
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	rows := make([]dyntable.Row, len(stored))
	for i, s := range stored {
		if s.Data == nil {
			s.Data = map[string]any{}
		}
		rows[i] = dyntable.Row{ID: s.ID, Data: s.Data}
	}
	return rows, nil
}
