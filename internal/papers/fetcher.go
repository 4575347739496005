// Package papers picks an arXiv paper of the day.
package papers

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mwhitfield/rulewatch/internal/model"
	"go.uber.org/zap"
)

// DefaultEndpoint is the arXiv Atom API.
const DefaultEndpoint = "http://export.arxiv.org/api/query"

// Defaults used when configuration leaves the fields empty.
var (
	DefaultQueries  = []string{"cat:cs.LG", "cat:cs.CL"}
	DefaultKeywords = []string{"transformer", "healthcare", "reinforcement learning", "medical", "graph", "privacy"}
)

// DefaultMaxResults is the candidate pool size.
const DefaultMaxResults = 20

// Fetcher fetches and scores arXiv candidates.
type Fetcher struct {
	endpoint   string
	queries    []string
	keywords   []string
	maxResults int
	parser     *gofeed.Parser
	logger     *zap.Logger
	now        func() time.Time
}

// NewFetcher creates a fetcher. Empty queries/keywords fall back to the
// package defaults.
func NewFetcher(logger *zap.Logger, endpoint string, queries, keywords []string, maxResults int) *Fetcher {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if len(queries) == 0 {
		queries = DefaultQueries
	}
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Fetcher{
		endpoint:   endpoint,
		queries:    queries,
		keywords:   keywords,
		maxResults: maxResults,
		parser:     gofeed.NewParser(),
		logger:     logger,
		now:        time.Now,
	}
}

// buildQuery combines the configured search queries with OR to widen
// the candidate pool.
func (f *Fetcher) buildQuery() string {
	var normalized []string
	for _, q := range f.queries {
		if q = strings.TrimSpace(q); q != "" {
			normalized = append(normalized, q)
		}
	}
	if len(normalized) == 0 {
		return "cat:cs.LG"
	}
	return strings.Join(normalized, " OR ")
}

// PaperOfTheDay fetches candidates and returns the highest scoring one.
// Upstream failure or an empty pool returns an error; callers degrade
// to an empty page.
func (f *Fetcher) PaperOfTheDay(ctx context.Context) (model.Paper, error) {
	params := url.Values{}
	params.Set("search_query", f.buildQuery())
	params.Set("sortBy", "submittedDate")
	params.Set("sortOrder", "descending")
	params.Set("max_results", strconv.Itoa(f.maxResults))

	feed, err := f.parser.ParseURLWithContext(f.endpoint+"?"+params.Encode(), ctx)
	if err != nil {
		f.logger.Warn("arxiv fetch failed", zap.Error(err))
		return model.Paper{}, fmt.Errorf("fetch arxiv feed: %w", err)
	}
	if len(feed.Items) == 0 {
		return model.Paper{}, fmt.Errorf("arxiv feed returned no entries")
	}

	candidates := make([]model.Paper, 0, len(feed.Items))
	for _, item := range feed.Items {
		if len(candidates) == f.maxResults {
			break
		}
		candidates = append(candidates, f.toPaper(item))
	}

	for i := range candidates {
		candidates[i].Score = f.score(candidates[i])
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates[0], nil
}

func (f *Fetcher) toPaper(item *gofeed.Item) model.Paper {
	p := model.Paper{
		ID:      item.GUID,
		Title:   item.Title,
		Summary: item.Description,
		Link:    item.Link,
		PDFURL:  pdfURL(item.Link),
	}
	if p.Title == "" {
		p.Title = "(untitled)"
	}
	for _, a := range item.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	if item.PublishedParsed != nil {
		p.Published = *item.PublishedParsed
	}
	return p
}

// pdfURL derives the PDF link from an arXiv abstract link.
func pdfURL(link string) string {
	if strings.Contains(link, "/abs/") {
		return strings.Replace(link, "/abs/", "/pdf/", 1)
	}
	if link != "" && !strings.HasSuffix(link, ".pdf") {
		return link + ".pdf"
	}
	return link
}

// score favors recent papers and keyword hits in title over summary.
func (f *Fetcher) score(p model.Paper) float64 {
	var score float64
	if !p.Published.IsZero() {
		ageDays := int(f.now().Sub(p.Published).Hours() / 24)
		if ageDays < 14 {
			if ageDays < 0 {
				ageDays = 0
			}
			score += float64(14 - ageDays)
		}
	}
	title := strings.ToLower(p.Title)
	summary := strings.ToLower(p.Summary)
	for _, kw := range f.keywords {
		kw = strings.ToLower(kw)
		switch {
		case strings.Contains(title, kw):
			score += 5
		case strings.Contains(summary, kw):
			score += 2
		}
	}
	return score
}
