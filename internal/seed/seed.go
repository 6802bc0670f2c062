// Package seed fills the store with plausible demo content: study-program
// detail pages and the comparison tables attached to them. Tables are
// built through the draft builder, the same path the admin UI uses.
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
	"github.com/goabroad-labs/studytables/internal/store"
)

// Options controls how much demo data to generate.
type Options struct {
	Pages         int
	TablesPerPage int
	RowsPerTable  int
	Seed          int64 // 0 keeps gofakeit's own randomness
}

var categories = []string{"Undergraduate", "Masters", "MBA", "Language School", "Exchange"}

var destinations = []string{
	"United Kingdom", "United States", "Canada", "Australia",
	"Germany", "Netherlands", "Singapore", "Japan",
}

// Run generates pages and tables. Returns the number of pages and tables
// created.
func Run(ctx context.Context, st store.Store, opts Options) (int, int, error) {
	faker := gofakeit.New(opts.Seed)

	pages := 0
	tables := 0
	for i := 0; i < opts.Pages; i++ {
		country := destinations[faker.Number(0, len(destinations)-1)]
		category := categories[faker.Number(0, len(categories)-1)]
		title := fmt.Sprintf("%s in %s", category, country)

		page := &site.DetailPage{
			Title:        title,
			Slug:         slugify(fmt.Sprintf("%s-%d", title, i+1)),
			Summary:      faker.Paragraph(1, 3, 12, " "),
			Category:     category,
			HeroImageURL: faker.ImageURL(1280, 480),
			Published:    true,
		}
		if err := st.CreatePage(ctx, page); err != nil {
			return pages, tables, fmt.Errorf("seed page %d: %w", i+1, err)
		}
		pages++

		for j := 0; j < opts.TablesPerPage; j++ {
			if err := seedTable(ctx, st, faker, page.ID, opts.RowsPerTable); err != nil {
				return pages, tables, fmt.Errorf("seed table for page %d: %w", page.ID, err)
			}
			tables++
		}
	}
	return pages, tables, nil
}

func seedTable(ctx context.Context, st store.Store, faker *gofakeit.Faker, pageID int64, rowCount int) error {
	d := dyntable.NewDraft()
	d.Title = "University Comparison"
	d.Description = "Side-by-side comparison of partner universities"
	d.DetailPageID = pageID

	uni, err := d.AddColumn("University", dyntable.TypeText)
	if err != nil {
		return err
	}
	city, err := d.AddColumn("City", dyntable.TypeText)
	if err != nil {
		return err
	}
	fee, err := d.AddColumn("Annual Fee (USD)", dyntable.TypeNumber)
	if err != nil {
		return err
	}
	web, err := d.AddColumn("Website", dyntable.TypeLink)
	if err != nil {
		return err
	}
	campus, err := d.AddColumn("Campus", dyntable.TypeImage)
	if err != nil {
		return err
	}
	notes, err := d.AddColumn("Highlights", dyntable.TypeRichText)
	if err != nil {
		return err
	}

	for i := 0; i < rowCount; i++ {
		row, err := d.AddRow()
		if err != nil {
			return err
		}
		name := faker.Company()
		err = d.UpdateRow(row.ID, map[string]any{
			uni.ID:    name + " University",
			city.ID:   faker.City(),
			fee.ID:    faker.Number(2, 60) * 1000,
			web.ID:    faker.URL(),
			campus.ID: faker.ImageURL(640, 360),
			notes.ID:  fmt.Sprintf("**%s**: %s", faker.BuzzWord(), faker.Sentence(8)),
		})
		if err != nil {
			return err
		}
	}

	table, err := d.Table()
	if err != nil {
		return err
	}
	return st.CreateTable(ctx, &table)
}

func slugify(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	lastDash := true
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
