package render

import (
	"bytes"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/goabroad-labs/studytables/internal/dyntable"
)

// Placeholder shown for empty or unreadable cell values.
const Placeholder = "-"

// Cell is one rendered cell. Kind tells the frontend which field to use:
// Text for text/number/date/boolean, URL for image/link, HTML for richtext.
type Cell struct {
	Kind  dyntable.ColumnType `json:"kind"`
	Text  string              `json:"text,omitempty"`
	URL   string              `json:"url,omitempty"`
	HTML  string              `json:"html,omitempty"`
	Empty bool                `json:"empty,omitempty"`
}

var (
	// WithUnsafe lets inline HTML through goldmark; the bluemonday pass
	// below is the single place where unsafe markup is removed.
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe()),
	)

	// UGC policy: formatting tags only, no scripts, no event handlers.
	// Richtext cells are operator-supplied but still untrusted.
	htmlPolicy = bluemonday.UGCPolicy()
)

// renderCell renders one value according to its column's declared type.
// Unexpected value shapes degrade to the placeholder instead of erroring;
// the public page must never break on malformed stored data.
func renderCell(typ dyntable.ColumnType, v any) Cell {
	s := strings.TrimSpace(stringify(v))
	if s == "" {
		return Cell{Kind: typ, Text: Placeholder, Empty: true}
	}

	switch typ {
	case dyntable.TypeNumber:
		return Cell{Kind: typ, Text: s}
	case dyntable.TypeImage:
		return Cell{Kind: typ, URL: s}
	case dyntable.TypeLink:
		return Cell{Kind: typ, URL: s, Text: s}
	case dyntable.TypeRichText:
		return Cell{Kind: typ, HTML: renderRichText(s)}
	case dyntable.TypeBoolean:
		if truthy(v) {
			return Cell{Kind: typ, Text: "Yes"}
		}
		return Cell{Kind: typ, Text: "No"}
	case dyntable.TypeDate:
		return Cell{Kind: typ, Text: formatDate(s)}
	default:
		// text, plus any type this renderer predates
		return Cell{Kind: typ, Text: s}
	}
}

// renderRichText converts markdown to HTML and sanitizes the result.
// Raw markup in the source passes through goldmark untouched, so the
// bluemonday pass is what actually guarantees nothing executable survives.
func renderRichText(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		log.Printf("[WARN] richtext convert failed, escaping as plain text: %v", err)
		return htmlPolicy.Sanitize(src)
	}
	return strings.TrimSpace(htmlPolicy.Sanitize(buf.String()))
}

// stringify flattens a cell value to display text. Composite values (the
// malformed leftovers of older data shapes) flatten to empty rather than
// their Go syntax.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case json.Number:
		return x.String()
	default:
		return ""
	}
}

// toFloat parses a cell value as a number for sorting.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1":
			return true
		}
	}
	return false
}

var dateLayouts = []string{time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006"}

// formatDate renders a date-ish string in a human-readable form, falling
// back to the raw value when no layout matches.
func formatDate(s string) string {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.Format("Jan 2, 2006")
		}
	}
	return s
}
