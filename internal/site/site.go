// Package site holds the catalog and inquiry types surrounding the dynamic
// tables: the study-program detail pages tables attach to, and the
// contact/B2B submissions from the public site.
package site

import (
	"strings"
	"time"
)

// DetailPage is a study-program catalog entry (a "card"). Dynamic tables
// reference exactly one detail page; a page can carry any number of tables.
type DetailPage struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Summary      string    `json:"summary,omitempty"`
	Category     string    `json:"category,omitempty"`
	HeroImageURL string    `json:"heroImageUrl,omitempty"`
	Published    bool      `json:"published"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// ContactKind distinguishes plain contact messages from B2B inquiries.
type ContactKind string

const (
	KindContact ContactKind = "contact"
	KindB2B     ContactKind = "b2b"
)

// Contact is a submission from the public contact or B2B inquiry form.
type Contact struct {
	ID        int64       `json:"id"`
	Kind      ContactKind `json:"kind"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	Company   string      `json:"company,omitempty"`
	Message   string      `json:"message"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ValidatePage checks the fields the admin form must fill in.
func ValidatePage(p *DetailPage) error {
	if strings.TrimSpace(p.Title) == "" {
		return &FieldError{Field: "title", Msg: "title is required"}
	}
	if strings.TrimSpace(p.Slug) == "" {
		return &FieldError{Field: "slug", Msg: "slug is required"}
	}
	return nil
}

// ValidateContact checks a form submission before it is stored.
func ValidateContact(c *Contact) error {
	if c.Kind == "" {
		c.Kind = KindContact
	}
	if c.Kind != KindContact && c.Kind != KindB2B {
		return &FieldError{Field: "kind", Msg: "unknown submission kind"}
	}
	if strings.TrimSpace(c.Name) == "" {
		return &FieldError{Field: "name", Msg: "name is required"}
	}
	if !strings.Contains(c.Email, "@") {
		return &FieldError{Field: "email", Msg: "a valid email is required"}
	}
	if c.Kind == KindB2B && strings.TrimSpace(c.Company) == "" {
		return &FieldError{Field: "company", Msg: "company is required for B2B inquiries"}
	}
	return nil
}

// FieldError is a user-correctable problem with a submitted form field.
type FieldError struct {
	Field string
	Msg   string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Msg }
