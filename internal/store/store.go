// Package store defines the persistence contract for tables, detail pages
// and contact submissions, with interchangeable SQLite and PostgreSQL
// backends selected by configuration.
package store

import (
	"context"
	"errors"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
)

var (
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRef means a table references a detail page that does not
	// exist.
	ErrInvalidRef = errors.New("detail page does not exist")
)

// TableStore persists full dynamic-table definitions. Create and Update are
// wholesale: the stored columns and rows are replaced with the payload as
// one unit, last write wins.
type TableStore interface {
	CreateTable(ctx context.Context, t *dyntable.Table) error
	GetTable(ctx context.Context, id int64) (*dyntable.Table, error)
	GetTablesByDetailPage(ctx context.Context, pageID int64) ([]dyntable.Table, error)
	UpdateTable(ctx context.Context, t *dyntable.Table) error
	DeleteTable(ctx context.Context, id int64) error
}

// PageStore persists study-program detail pages. Deleting a page deletes
// its tables: a table without a page is unreachable from every public path.
type PageStore interface {
	CreatePage(ctx context.Context, p *site.DetailPage) error
	GetPage(ctx context.Context, id int64) (*site.DetailPage, error)
	ListPages(ctx context.Context) ([]site.DetailPage, error)
	UpdatePage(ctx context.Context, p *site.DetailPage) error
	DeletePage(ctx context.Context, id int64) error
}

// ContactStore persists contact and B2B form submissions.
type ContactStore interface {
	CreateContact(ctx context.Context, c *site.Contact) error
	ListContacts(ctx context.Context, kind site.ContactKind) ([]site.Contact, error)
	DeleteContact(ctx context.Context, id int64) error
}

// Store is the full persistence surface the service runs on.
type Store interface {
	TableStore
	PageStore
	ContactStore

	// PurgeOrphanCells strips row values keyed by deleted columns across
	// all stored tables and reports how many values were removed. Run by
	// the maintenance sweep.
	PurgeOrphanCells(ctx context.Context) (int, error)

	Close() error
}

// prepareTable applies the shared write-path rules before any backend
// persists a table: fresh IDs where missing, one defined cell per column,
// and full validation.
func prepareTable(t *dyntable.Table) error {
	t.EnsureIDs()
	t.Normalize()
	return t.Validate()
}
