package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
)

// SQLite is the embedded store backend, used for local development and
// small deployments.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database file and applies migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
	conn, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids
	// SQLITE_BUSY under concurrent admin saves.
	conn.SetMaxOpenConns(1)

	s := &SQLite{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.conn.Close() }

func (s *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS detail_pages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			slug TEXT NOT NULL UNIQUE,
			summary TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			hero_image_url TEXT NOT NULL DEFAULT '',
			published INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS dynamic_tables (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			detail_page_id INTEGER NOT NULL REFERENCES detail_pages(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			icon_url TEXT NOT NULL DEFAULT '',
			columns_json TEXT NOT NULL DEFAULT '[]',
			rows_json TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS contacts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL DEFAULT 'contact',
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT NOT NULL DEFAULT '',
			company TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tables_page ON dynamic_tables(detail_page_id)`,
		`CREATE INDEX IF NOT EXISTS idx_contacts_kind ON contacts(kind)`,
	}
	for _, m := range migrations {
		if _, err := s.conn.Exec(m); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

func (s *SQLite) pageExists(ctx context.Context, id int64) (bool, error) {
	var one int
	err := s.conn.QueryRowContext(ctx, `SELECT 1 FROM detail_pages WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) CreateTable(ctx context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	ok, err := s.pageExists(ctx, t.DetailPageID)
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

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO dynamic_tables (detail_page_id, title, description, icon_url, columns_json, rows_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.DetailPageID, t.Title, t.Description, t.IconURL, string(cols), string(rows), now, now,
	)
	if err != nil {
		return fmt.Errorf("insert table: %w", err)
	}
	t.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) GetTable(ctx context.Context, id int64) (*dyntable.Table, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, detail_page_id, title, description, icon_url, columns_json, rows_json, created_at, updated_at
		 FROM dynamic_tables WHERE id = ?`, id)
	return scanTable(row)
}

func (s *SQLite) GetTablesByDetailPage(ctx context.Context, pageID int64) ([]dyntable.Table, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, detail_page_id, title, description, icon_url, columns_json, rows_json, created_at, updated_at
		 FROM dynamic_tables WHERE detail_page_id = ? ORDER BY created_at ASC, id ASC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []dyntable.Table
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, err
		}
		tables = append(tables, *t)
	}
	return tables, rows.Err()
}

func (s *SQLite) UpdateTable(ctx context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	ok, err := s.pageExists(ctx, t.DetailPageID)
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

	t.UpdatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE dynamic_tables SET detail_page_id = ?, title = ?, description = ?, icon_url = ?, columns_json = ?, rows_json = ?, updated_at = ?
		 WHERE id = ?`,
		t.DetailPageID, t.Title, t.Description, t.IconURL, string(cols), string(rowsJSON), t.UpdatedAt, t.ID,
	)
	if err != nil {
		return fmt.Errorf("update table: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	// The payload arrives without created_at; echo the stored value so the
	// response matches the record.
	err = s.conn.QueryRowContext(ctx,
		`SELECT created_at FROM dynamic_tables WHERE id = ?`, t.ID).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("reload created_at: %w", err)
	}
	return nil
}

func (s *SQLite) DeleteTable(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM dynamic_tables WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete table: %w", err)
	}
	return requireAffected(res)
}

func (s *SQLite) CreatePage(ctx context.Context, p *site.DetailPage) error {
	if err := site.ValidatePage(p); err != nil {
		return err
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO detail_pages (title, slug, summary, category, hero_image_url, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, p.Summary, p.Category, p.HeroImageURL, p.Published, now, now,
	)
	if err != nil {
		return fmt.Errorf("insert page: %w", err)
	}
	p.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) GetPage(ctx context.Context, id int64) (*site.DetailPage, error) {
	p := &site.DetailPage{}
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, slug, summary, category, hero_image_url, published, created_at, updated_at
		 FROM detail_pages WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Category, &p.HeroImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

func (s *SQLite) ListPages(ctx context.Context) ([]site.DetailPage, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, title, slug, summary, category, hero_image_url, published, created_at, updated_at
		 FROM detail_pages ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []site.DetailPage
	for rows.Next() {
		var p site.DetailPage
		if err := rows.Scan(&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Category, &p.HeroImageURL, &p.Published, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

func (s *SQLite) UpdatePage(ctx context.Context, p *site.DetailPage) error {
	if err := site.ValidatePage(p); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`UPDATE detail_pages SET title = ?, slug = ?, summary = ?, category = ?, hero_image_url = ?, published = ?, updated_at = ?
		 WHERE id = ?`,
		p.Title, p.Slug, p.Summary, p.Category, p.HeroImageURL, p.Published, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update page: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	err = s.conn.QueryRowContext(ctx,
		`SELECT created_at FROM detail_pages WHERE id = ?`, p.ID).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("reload created_at: %w", err)
	}
	return nil
}

// DeletePage removes a page and every table attached to it.
func (s *SQLite) DeletePage(ctx context.Context, id int64) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dynamic_tables WHERE detail_page_id = ?`, id); err != nil {
		return fmt.Errorf("delete page tables: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM detail_pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLite) CreateContact(ctx context.Context, c *site.Contact) error {
	if err := site.ValidateContact(c); err != nil {
		return err
	}
	c.CreatedAt = time.Now().UTC()
	res, err := s.conn.ExecContext(ctx,
		`INSERT INTO contacts (kind, name, email, phone, company, message, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.Kind, c.Name, c.Email, c.Phone, c.Company, c.Message, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	c.ID, err = res.LastInsertId()
	return err
}

func (s *SQLite) ListContacts(ctx context.Context, kind site.ContactKind) ([]site.Contact, error) {
	query := `SELECT id, kind, name, email, phone, company, message, created_at FROM contacts`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.conn.QueryContext(ctx, query, args...)
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

func (s *SQLite) DeleteContact(ctx context.Context, id int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return requireAffected(res)
}

// PurgeOrphanCells rewrites every table whose rows still carry values for
// deleted columns.
func (s *SQLite) PurgeOrphanCells(ctx context.Context) (int, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT id, columns_json, rows_json FROM dynamic_tables`)
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
		if _, err := s.conn.ExecContext(ctx,
			`UPDATE dynamic_tables SET rows_json = ? WHERE id = ?`, string(u.rows), u.id); err != nil {
			return total, fmt.Errorf("purge table %d: %w", u.id, err)
		}
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTable(row rowScanner) (*dyntable.Table, error) {
	t := &dyntable.Table{}
	var colsJSON, rowsJSON []byte
	err := row.Scan(&t.ID, &t.DetailPageID, &t.Title, &t.Description, &t.IconURL, &colsJSON, &rowsJSON, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan table: %w", err)
	}
	if t.Columns, err = decodeColumns(colsJSON); err != nil {
		return nil, err
	}
	if t.Rows, err = decodeRows(rowsJSON); err != nil {
		return nil, err
	}
	return t, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
