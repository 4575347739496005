// Package model defines shared data structures.
package model

import "time"

// Document is a Federal Register document as returned by the upstream API.
// Immutable from this system's point of view; re-fetched per cache window.
type Document struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	HTMLURL         string   `json:"html_url"`
	PublicationDate string   `json:"publication_date"` // YYYY-MM-DD
	AgencyNames     []string `json:"agency_names"`
	Abstract        string   `json:"abstract"`
	Type            string   `json:"type"`
}

// Direction is a vote direction.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// VoteTally holds the current vote counts for a document, plus the
// direction the requesting voter currently holds (empty if none).
type VoteTally struct {
	Up        int       `json:"up_votes"`
	Down      int       `json:"down_votes"`
	Score     int       `json:"score"`
	Direction Direction `json:"direction,omitempty"`
}

// Comment is a single comment on a document. Append-only, no edit/delete.
type Comment struct {
	DocumentID string    `json:"document_id"`
	Author     string    `json:"author"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// SuggestedSearch is an entry from the Federal Register suggested
// searches endpoint.
type SuggestedSearch struct {
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	DocumentsCount int    `json:"documents_count"`
}

// Paper is an arXiv entry for the paper-of-the-day page.
type Paper struct {
	ID        string
	Title     string
	Summary   string
	Authors   []string
	Link      string
	PDFURL    string
	Published time.Time
	Score     float64
}
