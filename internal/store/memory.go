package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
)

// Memory is an in-memory Store used by handler tests and throwaway local
// runs. It applies the same validation and reference rules as the SQL
// backends.
type Memory struct {
	mu       sync.RWMutex
	tables   map[int64]dyntable.Table
	pages    map[int64]site.DetailPage
	contacts map[int64]site.Contact
	nextID   int64
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tables:   make(map[int64]dyntable.Table),
		pages:    make(map[int64]site.DetailPage),
		contacts: make(map[int64]site.Contact),
	}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) nextIDLocked() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) CreateTable(_ context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[t.DetailPageID]; !ok {
		return ErrInvalidRef
	}
	t.ID = m.nextIDLocked()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	m.tables[t.ID] = t.Clone()
	return nil
}

func (m *Memory) GetTable(_ context.Context, id int64) (*dyntable.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := t.Clone()
	return &out, nil
}

func (m *Memory) GetTablesByDetailPage(_ context.Context, pageID int64) ([]dyntable.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []dyntable.Table
	for _, t := range m.tables {
		if t.DetailPageID == pageID {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateTable(_ context.Context, t *dyntable.Table) error {
	if err := prepareTable(t); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.tables[t.ID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m.pages[t.DetailPageID]; !ok {
		return ErrInvalidRef
	}
	t.CreatedAt = prev.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	m.tables[t.ID] = t.Clone()
	return nil
}

func (m *Memory) DeleteTable(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[id]; !ok {
		return ErrNotFound
	}
	delete(m.tables, id)
	return nil
}

func (m *Memory) CreatePage(_ context.Context, p *site.DetailPage) error {
	if err := site.ValidatePage(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextIDLocked()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	m.pages[p.ID] = *p
	return nil
}

func (m *Memory) GetPage(_ context.Context, id int64) (*site.DetailPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListPages(_ context.Context) ([]site.DetailPage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]site.DetailPage, 0, len(m.pages))
	for _, p := range m.pages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) UpdatePage(_ context.Context, p *site.DetailPage) error {
	if err := site.ValidatePage(p); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.pages[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = prev.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	m.pages[p.ID] = *p
	return nil
}

func (m *Memory) DeletePage(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[id]; !ok {
		return ErrNotFound
	}
	delete(m.pages, id)
	for tid, t := range m.tables {
		if t.DetailPageID == id {
			delete(m.tables, tid)
		}
	}
	return nil
}

func (m *Memory) CreateContact(_ context.Context, c *site.Contact) error {
	if err := site.ValidateContact(c); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextIDLocked()
	c.CreatedAt = time.Now().UTC()
	m.contacts[c.ID] = *c
	return nil
}

func (m *Memory) ListContacts(_ context.Context, kind site.ContactKind) ([]site.Contact, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []site.Contact
	for _, c := range m.contacts {
		if kind == "" || c.Kind == kind {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *Memory) DeleteContact(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.contacts[id]; !ok {
		return ErrNotFound
	}
	delete(m.contacts, id)
	return nil
}

func (m *Memory) PurgeOrphanCells(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for id, t := range m.tables {
		c := t.Clone()
		if n := c.StripOrphans(); n > 0 {
			m.tables[id] = c
			total += n
		}
	}
	return total, nil
}
