package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
)

// Postgres is the production store backend, backed by a pgx pool.
type Postgres struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// OpenPostgres connects to the database, verifies the connection and
// applies migrations.
func OpenPostgres(ctx context.Context, databaseURL string, queryTimeout time.Duration) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	p := &Postgres{pool: pool, queryTimeout: queryTimeout}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return p, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// withTimeout applies the configured query timeout unless the parent
// context already expires sooner.
func (p *Postgres) withTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := parent.Deadline(); ok && time.Until(deadline) <= p.queryTimeout {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, p.queryTimeout)
}

func (p *Postgres) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS detail_pages (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			summary TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			hero_image_url TEXT NOT NULL DEFAULT '',
			published BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS dynamic_tables (
			id BIGSERIAL PRIMARY KEY,
			detail_page_id BIGINT NOT NULL REFERENCES detail_pages(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon_url TEXT NOT NULL DEFAULT '',
			columns_json JSONB NOT NULL DEFAULT '[]',
			rows_json JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id BIGSERIAL PRIMARY KEY,
			kind TEXT NOT NULL DEFAULT 'contact',
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_page ON dynamic_tables(detail_page_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_kind ON contacts(kind)`,
	}
	for _, m := range migrations {
		if _, err := p.pool.Exec(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (p *Postgres) pageExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM detail_pages WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (p *Postgres) CreateTable(ctx context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	ok, err := p.pageExists(ctx, t.DetailPageID)
	if err != nil {
		return fmt.Errorf("check detail page: %w", err)
	}
	if !ok {
		return ErrInvalidRef
	}

	cols, err := encodeColumns(t.Columns)
	if err != nil {
		return err
	}
	rows, err := encodeRows(t.Rows)
	if err != nil {
		return err
	}

	err = p.pool.QueryRow(ctx,
		`INSERT INTO dynamic_tables (detail_page_id, title, description, icon_url, columns_json, rows_json)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		t.DetailPageID, t.Title, t.Description, t.IconURL, cols, rows,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	return nil
}

func (p *Postgres) GetTable(ctx context.Context, id int64) (*dyntable.Table, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	t := &dyntable.Table{}
	var colsJSON, rowsJSON []byte
	err := p.pool.QueryRow(ctx,
		`SELECT id, detail_page_id, title, description, icon_url, columns_json, rows_json, created_at, updated_at
		 FROM dynamic_tables WHERE id = $1`, id,
	).Scan(&t.ID, &t.DetailPageID, &t.Title, &t.Description, &t.IconURL, &colsJSON, &rowsJSON, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get table: %w", err)
	}
	if t.Columns, err = decodeColumns(colsJSON); err != nil {
		return nil, err
	}
	if t.Rows, err = decodeRows(rowsJSON); err != nil {
		return nil, err
	}
	return t, nil
}

func (p *Postgres) GetTablesByDetailPage(ctx context.Context, pageID int64) ([]dyntable.Table, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT id, detail_page_id, title, description, icon_url, columns_json, rows_json, created_at, updated_at
		 FROM dynamic_tables WHERE detail_page_id = $1 ORDER BY created_at ASC, id ASC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []dyntable.Table
	for rows.Next() {
		var t dyntable.Table
		var colsJSON, rowsJSON []byte
		if err := rows.Scan(&t.ID, &t.DetailPageID, &t.Title, &t.Description, &t.IconURL, &colsJSON, &rowsJSON, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan table: %w", err)
		}
		if t.Columns, err = decodeColumns(colsJSON); err != nil {
			return nil, err
		}
		if t.Rows, err = decodeRows(rowsJSON); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

func (p *Postgres) UpdateTable(ctx context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	ok, err := p.pageExists(ctx, t.DetailPageID)
	if err != nil {
		return fmt.Errorf("check detail page: %w", err)
	}
	if !ok {
		return ErrInvalidRef
	}

	cols, err := encodeColumns(t.Columns)
	if err != nil {
		return err
	}
	rowsJSON, err := encodeRows(t.Rows)
	if err != nil {
		return err
	}

	err = p.pool.QueryRow(ctx,
		`UPDATE dynamic_tables
		 SET detail_page_id = $1, title = $2, description = $3, icon_url = $4, columns_json = $5, rows_json = $6, updated_at = now()
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		t.DetailPageID, t.Title, t.Description, t.IconURL, cols, rowsJSON, t.ID,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	return nil
}

func (p *Postgres) DeleteTable(ctx context.Context, id int64) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM dynamic_tables WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreatePage(ctx context.Context, pg *site.DetailPage) error {
	if err := site.ValidatePage(pg); err != nil {
		return err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	err := p.pool.QueryRow(ctx,
		`INSERT INTO detail_pages (title, slug, summary, category, hero_image_url, published)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		pg.Title, pg.Slug, pg.Summary, pg.Category, pg.HeroImageURL, pg.Published,
	).Scan(&pg.ID, &pg.CreatedAt, &pg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

func (p *Postgres) GetPage(ctx context.Context, id int64) (*site.DetailPage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	pg := &site.DetailPage{}
	err := p.pool.QueryRow(ctx,
		`SELECT id, title, slug, summary, category, hero_image_url, published, created_at, updated_at
		 FROM detail_pages WHERE id = $1`, id,
	).Scan(&pg.ID, &pg.Title, &pg.Slug, &pg.Summary, &pg.Category, &pg.HeroImageURL, &pg.Published, &pg.CreatedAt, &pg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return pg, nil
}

func (p *Postgres) ListPages(ctx context.Context) ([]site.DetailPage, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx,
		`SELECT id, title, slug, summary, category, hero_image_url, published, created_at, updated_at
		 FROM detail_pages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []site.DetailPage
	for rows.Next() {
		var pg site.DetailPage
		if err := rows.Scan(&pg.ID, &pg.Title, &pg.Slug, &pg.Summary, &pg.Category, &pg.HeroImageURL, &pg.Published, &pg.CreatedAt, &pg.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, pg)
	}
	return pages, rows.Err()
}

func (p *Postgres) UpdatePage(ctx context.Context, pg *site.DetailPage) error {
	if err := site.ValidatePage(pg); err != nil {
		return err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	err := p.pool.QueryRow(ctx,
		`UPDATE detail_pages
		 SET title = $1, slug = $2, summary = $3, category = $4, hero_image_url = $5, published = $6, updated_at = now()
		 WHERE id = $7
		 RETURNING created_at, updated_at`,
		pg.Title, pg.Slug, pg.Summary, pg.Category, pg.HeroImageURL, pg.Published, pg.ID,
	).Scan(&pg.CreatedAt, &pg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	return nil
}

func (p *Postgres) DeletePage(ctx context.Context, id int64) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM dynamic_tables WHERE detail_page_id = $1`, id); err != nil {
		return fmt.Errorf("delete page tables: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM detail_pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (p *Postgres) CreateContact(ctx context.Context, c *site.Contact) error {
	if err := site.ValidateContact(c); err != nil {
		return err
	}
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	err := p.pool.QueryRow(ctx,
		`INSERT INTO contacts (kind, name, email, phone, company, message)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		c.Kind, c.Name, c.Email, c.Phone, c.Company, c.Message,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

func (p *Postgres) ListContacts(ctx context.Context, kind site.ContactKind) ([]site.Contact, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := `SELECT id, kind, name, email, phone, company, message, created_at FROM contacts`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []site.Contact
	for rows.Next() {
		var c site.Contact
		if err := rows.Scan(&c.ID, &c.Kind, &c.Name, &c.Email, &c.Phone, &c.Company, &c.Message, &c.CreatedAt); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

func (p *Postgres) DeleteContact(ctx context.Context, id int64) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	tag, err := p.pool.Exec(ctx, `DELETE FROM contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeOrphanCells rewrites every table whose rows still carry values for
// deleted columns.
func (p *Postgres) PurgeOrphanCells(ctx context.Context) (int, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	rows, err := p.pool.Query(ctx, `SELECT id, columns_json, rows_json FROM dynamic_tables`)
	if err != nil {
		return 0, err
	}
	type pending struct {
		id   int64
		rows []byte
	}
	var updates []pending
	total := 0
	for rows.Next() {
		var id int64
		var colsJSON, rowsJSON []byte
		if err := rows.Scan(&id, &colsJSON, &rowsJSON); err != nil {
			rows.Close()
			return total, err
		}
		t := dyntable.Table{}
		if t.Columns, err = decodeColumns(colsJSON); err != nil {
			rows.Close()
			return total, fmt.Errorf("table %d: %w", id, err)
		}
		if t.Rows, err = decodeRows(rowsJSON); err != nil {
			rows.Close()
			return total, fmt.Errorf("table %d: %w", id, err)
		}
		if n := t.StripOrphans(); n > 0 {
			encoded, err := encodeRows(t.Rows)
			if err != nil {
				rows.Close()
				return total, fmt.Errorf("table %d: %w", id, err)
			}
			updates = append(updates, pending{id: id, rows: encoded})
			total += n
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return total, err
	}

	for _, u := range updates {
		if _, err := p.pool.Exec(ctx, `UPDATE dynamic_tables SET rows_json = $1 WHERE id = $2`, u.rows, u.id); err != nil {
			return total, fmt.Errorf("purge table %d: %w", u.id, err)
		}
	}
	return total, nil
}
