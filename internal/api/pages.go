package api

import (
	"net/http"

	"github.com/goabroad-labs/studytables/internal/site"
)

func (h *Handler) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var p site.DetailPage
	if !h.decodeJSONBody(w, r, &p) {
		return
	}
	p.ID = 0

	if err := h.store.CreatePage(r.Context(), &p); err != nil {
		h.respondStoreError(w, err, "save page")
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.store.ListPages(r.Context())
	if err != nil {
		h.respondStoreError(w, err, "list pages")
		return
	}
	if pages == nil {
		pages = []site.DetailPage{}
	}
	respondJSON(w, http.StatusOK, pages)
}

func (h *Handler) handleGetPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.store.GetPage(r.Context(), id)
	if err != nil {
		h.respondStoreError(w, err, "load page")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var p site.DetailPage
	if !h.decodeJSONBody(w, r, &p) {
		return
	}
	p.ID = id

	if err := h.store.UpdatePage(r.Context(), &p); err != nil {
		h.respondStoreError(w, err, "save page")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

// handleDeletePage deletes the page and, with it, every table attached.
func (h *Handler) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeletePage(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "delete page")
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}
