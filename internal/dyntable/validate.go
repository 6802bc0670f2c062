package dyntable

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TypeInfo describes a column type for the admin UI.
type TypeInfo struct {
	Name        ColumnType `json:"name"`
	Description string     `json:"description"`
	Sortable    bool       `json:"sortable"`
}

// AllowedTypes is the canonical list of column types the builder accepts.
// The admin frontend fetches this via the API to stay in sync.
var AllowedTypes = []TypeInfo{
	{Name: TypeText, Description: "Plain text", Sortable: true},
	{Name: TypeNumber, Description: "Numeric value", Sortable: true},
	{Name: TypeImage, Description: "Image URL, shown as a thumbnail", Sortable: false},
	{Name: TypeLink, Description: "External link, opens in a new tab", Sortable: false},
	{Name: TypeRichText, Description: "Formatted text (markdown)", Sortable: false},
}

var allowedTypeSet = buildAllowedTypeSet()

func buildAllowedTypeSet() map[ColumnType]bool {
	m := make(map[ColumnType]bool, len(AllowedTypes))
	for _, t := range AllowedTypes {
		m[t.Name] = true
	}
	return m
}

// IsValidType reports whether the builder accepts the given column type.
// boolean and date are renderer-tolerated but not creatable yet.
func IsValidType(t ColumnType) bool {
	return allowedTypeSet[t]
}

// renderableTypeSet additionally covers types the renderer tolerates.
var renderableTypeSet = map[ColumnType]bool{
	TypeBoolean: true,
	TypeDate:    true,
}

// IsRenderableType reports whether the renderer knows the type at all.
func IsRenderableType(t ColumnType) bool {
	return allowedTypeSet[t] || renderableTypeSet[t]
}

// ValidationError reports a user-correctable problem with a table payload
// or a builder operation. The field names match the wire contract.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate checks a complete table definition against the save rules:
// non-empty title, a target detail page, at least one column, well-formed
// columns with case-insensitively unique names, and unique row IDs.
func (t *Table) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return validationf("title", "title is required")
	}
	if t.DetailPageID <= 0 {
		return validationf("detailPageId", "a detail page must be selected")
	}
	if len(t.Columns) == 0 {
		return validationf("columns", "at least one column is required")
	}
	seenID := make(map[string]bool, len(t.Columns))
	seenName := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		if err := validateColumn(c); err != nil {
			return err
		}
		if seenID[c.ID] {
			return validationf("columns", "duplicate column id %q", c.ID)
		}
		seenID[c.ID] = true
		lower := strings.ToLower(strings.TrimSpace(c.Name))
		if seenName[lower] {
			return validationf("columns", "duplicate column name %q", t.Columns[i].Name)
		}
		seenName[lower] = true
	}
	seenRow := make(map[string]bool, len(t.Rows))
	for _, r := range t.Rows {
		if seenRow[r.ID] {
			return validationf("rows", "duplicate row id %q", r.ID)
		}
		seenRow[r.ID] = true
	}
	return nil
}

func validateColumn(c Column) error {
	if strings.TrimSpace(c.Name) == "" {
		return validationf("columns", "column name is required")
	}
	if !IsValidType(c.Type) {
		return validationf("columns", "unsupported column type %q", c.Type)
	}
	if c.Width < 0 {
		return validationf("columns", "column width must not be negative")
	}
	return nil
}

// EnsureIDs assigns a fresh UUID to every column and row that arrived
// without one. Existing IDs are kept so cell keys stay stable across edits.
func (t *Table) EnsureIDs() {
	for i := range t.Columns {
		if t.Columns[i].ID == "" {
			t.Columns[i].ID = uuid.NewString()
		}
	}
	for i := range t.Rows {
		if t.Rows[i].ID == "" {
			t.Rows[i].ID = uuid.NewString()
		}
	}
}
