package api

import (
	"net/http"

	"github.com/goabroad-labs/studytables/internal/site"
)

// handleCreateContact takes submissions from both the contact form and the
// B2B inquiry form; the kind field tells them apart.
func (h *Handler) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var c site.Contact
	if !h.decodeJSONBody(w, r, &c) {
		return
	}
	c.ID = 0

	if err := h.store.CreateContact(r.Context(), &c); err != nil {
		h.respondStoreError(w, err, "save submission")
		return
	}
	respondJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListContacts(w http.ResponseWriter, r *http.Request) {
	kind := site.ContactKind(r.URL.Query().Get("kind"))
	contacts, err := h.store.ListContacts(r.Context(), kind)
	if err != nil {
		h.respondStoreError(w, err, "list submissions")
		return
	}
	if contacts == nil {
		contacts = []site.Contact{}
	}
	respondJSON(w, http.StatusOK, contacts)
}

func (h *Handler) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeleteContact(r.Context(), id); err != nil {
		h.respondStoreError(w, err, "delete submission")
		return
	}
	respondJSON(w, http.StatusOK, struct{}{})
}
