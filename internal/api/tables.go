package api

import (
	"net/http"

	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/render"
)

func (h *Handler) handleColumnTypes(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, dyntable.AllowedTypes)
}

// handleCreateTable accepts a full table definition and persists it. The
// builder runs client-side; the payload is the staged draft, saved
// wholesale.
func (h *Handler) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	var t dyntable.Table
	if !h.decodeJSONBody(w, r, &t) {
		return
	}
	t.ID = 0

	if err := h.store.CreateTable(r.Context(), &t); err != nil {
		h.respondStoreError(w, err, "save table")
		return
	}
	respondJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleGetTable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	t, err := h.store.GetTable(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err, "load table")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// handleUpdateTable replaces the stored definition wholesale. There is no
// merge and no concurrency token: the last save wins.
func (h *Handler) handleUpdateTable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var t dyntable.Table
	if !h.decodeJSONBody(w, r, &t) {
		return
	}
	t.ID = id

	if err := h.store.UpdateTable(r.Context(), &t); err != nil {
		h.respondStoreError(w, err, "save table")
		return
	}
	respondJSON(w, http.StatusOK, t)
}

func (h *Handler) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteTable(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "delete table")
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}

// handlePageTables returns the raw definitions attached to a page, for the
// admin editing surface.
func (h *Handler) handlePageTables(w http.ResponseWriter, r *http.Request) {
	pageID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.GetPage(r.Context(), pageID); err != nil {
		h.respondStoreError(w, err, "load page")
		return
	}
	tables, err := h.store.GetTablesByDetailPage(r.Context(), pageID)
	if err != nil {
		h.respondStoreError(w, err, "load tables")
		return
	}
	if tables == nil {
		tables = []dyntable.Table{}
	}
	respondJSON(w, http.StatusOK, tables)
}

// handlePageTablesRendered is the public read path: every table on the
// page, rendered with the requested search and sort applied.
func (h *Handler) handlePageTablesRendered(w http.ResponseWriter, r *http.Request) {
	pageID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.store.GetPage(r.Context(), pageID); err != nil {
		h.respondStoreError(w, err, "load page")
		return
	}
	tables, err := h.store.GetTablesByDetailPage(r.Context(), pageID)
	if err != nil {
		h.respondStoreError(w, err, "load tables")
		return
	}

	q := r.URL.Query()
	opts := render.Options{
		Query:   q.Get("q"),
		SortKey: q.Get("sort"),
		SortDir: render.SortDir(q.Get("dir")),
	}
	views := make([]render.View, 0, len(tables))
	for _, t := range tables {
		views = append(views, render.Render(t, opts))
	}
	respondJSON(w, http.StatusOK, views)
}
