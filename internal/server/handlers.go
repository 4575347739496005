package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mwhitfield/rulewatch/internal/model"
	"github.com/mwhitfield/rulewatch/internal/rank"
	"github.com/mwhitfield/rulewatch/internal/store"
	"github.com/mwhitfield/rulewatch/internal/validate"
	"go.uber.org/zap"
)

const (
	maxTitleDisplay    = 120
	maxAgencyDisplay   = 2
	federalRegisterWeb = "https://www.federalregister.gov/documents/"
)

// docView is a document annotated for page rendering.
type docView struct {
	model.Document
	TitleDisplay  string
	AgencyDisplay string
	TimeAgo       string
	UpVotes       int
	DownVotes     int
	Score         int
	UserDirection model.Direction
	CommentCount  int
}

// PublishedOn and VoteScore let docViews be ranked directly, so
// documents sharing a document number stay distinct rows.
func (v docView) PublishedOn() string { return v.PublicationDate }
func (v docView) VoteScore() int      { return v.Score }

// --- Page Handlers ---

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	docs := s.search(r.Context(), s.defaultQuery)
	views := s.annotate(r, docs)
	rank.Sort(s.ranker, views)

	s.render(w, "index.html", map[string]any{
		"Documents": views,
		"Query":     s.defaultQuery,
		"CSRFToken": csrfToken(r),
	})
}

// annotate joins documents with their vote tallies and comment counts.
func (s *Server) annotate(r *http.Request, docs []model.Document) []docView {
	voter := voterKey(r)
	views := make([]docView, 0, len(docs))
	for _, d := range docs {
		v := docView{
			Document:     d,
			TitleDisplay: d.Title,
			TimeAgo:      timeAgo(d.PublicationDate),
		}
		// Truncate on runes so a multi-byte character is never split.
		if runes := []rune(v.TitleDisplay); len(runes) > maxTitleDisplay {
			v.TitleDisplay = string(runes[:maxTitleDisplay]) + "..."
		}
		agencies := d.AgencyNames
		if len(agencies) > maxAgencyDisplay {
			agencies = agencies[:maxAgencyDisplay]
		}
		v.AgencyDisplay = strings.Join(agencies, ", ")

		if validate.DocumentID(d.DocumentNumber) {
			if tally, err := s.store.Tally(d.DocumentNumber, voter); err == nil {
				v.UpVotes, v.DownVotes = tally.Up, tally.Down
				v.Score = tally.Score
				v.UserDirection = tally.Direction
			}
			if count, err := s.store.CommentCount(d.DocumentNumber); err == nil {
				v.CommentCount = count
			}
		}
		views = append(views, v)
	}
	return views
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "documentID")
	if !validate.DocumentID(docID) {
		http.Error(w, "Invalid document ID", http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, federalRegisterWeb+docID, http.StatusFound)
}

func (s *Server) handleSearches(w http.ResponseWriter, r *http.Request) {
	searches, err := s.source.SuggestedSearches(r.Context(), healthcareKeywords)
	if err != nil {
		s.logger.Warn("suggested searches degraded to empty list", zap.Error(err))
		searches = nil
	}
	s.render(w, "searches.html", map[string]any{"Searches": searches})
}

func (s *Server) handlePaper(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	if s.papers != nil {
		paper, err := s.papers.PaperOfTheDay(r.Context())
		if err != nil {
			s.logger.Warn("paper of the day unavailable", zap.Error(err))
		} else {
			data["Paper"] = paper
		}
	}
	s.render(w, "paper.html", data)
}

// --- API Handlers ---

func (s *Server) handleAPIDocuments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		query = s.defaultQuery
	}
	if !validate.Query(query) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Invalid query"})
		return
	}
	docs := s.search(r.Context(), query)
	if docs == nil {
		docs = []model.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
		Direction  string `json:"direction"`
		CSRFToken  string `json:"csrf_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request"})
		return
	}
	if !validCSRF(r, req.CSRFToken) {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": "Invalid CSRF token"})
		return
	}

	// The single-button client omits direction; treat it as an upvote.
	direction := model.Direction(req.Direction)
	if direction == "" {
		direction = model.DirectionUp
	}

	tally, err := s.store.ApplyVote(req.DocumentID, voterKey(r), direction)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"up_votes":   tally.Up,
		"down_votes": tally.Down,
		"score":      tally.Score,
		"direction":  tally.Direction,
	})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DocumentID string `json:"document_id"`
		Author     string `json:"author"`
		Comment    string `json:"comment"`
		CSRFToken  string `json:"csrf_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Invalid request"})
		return
	}
	if !validCSRF(r, req.CSRFToken) {
		writeJSON(w, http.StatusForbidden, map[string]any{"success": false, "error": "Invalid CSRF token"})
		return
	}

	author := validate.Sanitize(req.Author)
	text := validate.Sanitize(req.Comment)

	count, err := s.store.AddComment(req.DocumentID, author, text)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"comment_count": count,
	})
}

// writeStoreError maps store errors to soft JSON failures. Validation
// messages are surfaced verbatim; anything else stays generic.
func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": err.Error()})
		return
	}
	s.logger.Error("store operation failed", zap.Error(err))
	writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Temporarily unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
