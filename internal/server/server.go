// Package server provides the HTTP server and handlers.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mwhitfield/rulewatch/internal/cache"
	"github.com/mwhitfield/rulewatch/internal/fedreg"
	"github.com/mwhitfield/rulewatch/internal/model"
	"github.com/mwhitfield/rulewatch/internal/rank"
	"github.com/mwhitfield/rulewatch/internal/store"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static/*
var staticFS embed.FS

// Keywords used to filter the suggested-searches page.
var healthcareKeywords = []string{"medicare", "medicaid", "health"}

// DocumentSource fetches documents and suggested searches, normally a
// *fedreg.Client.
type DocumentSource interface {
	Documents(ctx context.Context, query string, perPage int) ([]model.Document, error)
	SuggestedSearches(ctx context.Context, keywords []string) ([]model.SuggestedSearch, error)
}

// PaperSource picks the paper of the day, normally a *papers.Fetcher.
type PaperSource interface {
	PaperOfTheDay(ctx context.Context) (model.Paper, error)
}

// Options configures a Server.
type Options struct {
	Store        store.Store
	Source       DocumentSource
	Papers       PaperSource
	Cache        *cache.Cache
	Ranker       *rank.Ranker
	Logger       *zap.Logger
	DefaultQuery string
	PerPage      int
}

// Server is the main HTTP server.
type Server struct {
	store        store.Store
	source       DocumentSource
	papers       PaperSource
	cache        *cache.Cache
	ranker       *rank.Ranker
	logger       *zap.Logger
	router       chi.Router
	templates    *template.Template
	defaultQuery string
	perPage      int
}

// New creates a new server.
func New(opts Options) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"timeAgo": timeAgo,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	if opts.DefaultQuery == "" {
		opts.DefaultQuery = "medicare medicaid"
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 30
	}
	if opts.Ranker == nil {
		opts.Ranker = rank.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		store:        opts.Store,
		source:       opts.Source,
		papers:       opts.Papers,
		cache:        opts.Cache,
		ranker:       opts.Ranker,
		logger:       opts.Logger,
		templates:    tmpl,
		defaultQuery: opts.DefaultQuery,
		perPage:      opts.PerPage,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(middleware.Throttle(64))
	r.Use(s.withSession)

	// Serve static files.
	staticSub, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	// Pages.
	r.Get("/", s.handleHome)
	r.Get("/document/{documentID}", s.handleDocument)
	r.Get("/searches", s.handleSearches)
	r.Get("/paper", s.handlePaper)

	// JSON API.
	r.Get("/api/documents", s.handleAPIDocuments)
	r.Post("/vote", s.handleVote)
	r.Post("/comment", s.handleComment)

	s.router = r
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// shutdownTimeout bounds how long in-flight requests may run once a
// stop signal arrives.
const shutdownTimeout = 10 * time.Second

// Start runs the server until the listener fails or ctx is cancelled,
// then drains in-flight requests before returning.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("server starting", zap.String("addr", addr), zap.String("store", s.store.BackendType()))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// search returns documents for query, via the cache when fresh.
// Upstream failures degrade to an empty list.
func (s *Server) search(ctx context.Context, query string) []model.Document {
	if docs, ok := s.cache.Get(query); ok {
		return docs
	}
	docs, err := s.source.Documents(ctx, query, s.perPage)
	if err != nil {
		if errors.Is(err, fedreg.ErrFetch) {
			s.logger.Warn("document fetch degraded to empty list", zap.String("query", query), zap.Error(err))
			return nil
		}
		s.logger.Error("document fetch failed", zap.String("query", query), zap.Error(err))
		return nil
	}
	s.cache.Put(query, docs)
	return docs
}

// requestLogger logs each request with zap.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// render writes an HTML template response.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("template error", zap.String("template", name), zap.Error(err))
		http.Error(w, "Render error", http.StatusInternalServerError)
	}
}

// timeAgo formats a YYYY-MM-DD publication date relative to now.
func timeAgo(dateStr string) string {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return dateStr
	}
	days := int(time.Since(date).Hours() / 24)
	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1 day ago"
	case days < 30:
		return fmt.Sprintf("%d days ago", days)
	case days < 365:
		months := days / 30
		if months == 1 {
			return "1 month ago"
		}
		return fmt.Sprintf("%d months ago", months)
	default:
		years := days / 365
		if years == 1 {
			return "1 year ago"
		}
		return fmt.Sprintf("%d years ago", years)
	}
}
