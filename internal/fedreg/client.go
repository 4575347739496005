// Package fedreg is a client for the Federal Register REST API.
package fedreg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mwhitfield/rulewatch/internal/model"
	"go.uber.org/zap"
)

// ErrFetch wraps all upstream failures: timeouts, non-2xx responses
// and malformed payloads. Callers degrade to an empty result set.
var ErrFetch = errors.New("federal register fetch failed")

const (
	// DefaultBaseURL is the production API root.
	DefaultBaseURL = "https://www.federalregister.gov/api/v1"
	// DefaultTimeout is the fixed outbound timeout. Single attempt, no retry.
	DefaultTimeout = 30 * time.Second
	// MaxPerPage caps page size to prevent abuse of the upstream.
	MaxPerPage = 50

	userAgent = "rulewatch/1.0"
)

// CMSAgencyID is the Federal Register agency ID for the Centers for
// Medicare & Medicaid Services, the default document filter.
const CMSAgencyID = 54

// Client issues requests against the Federal Register API.
type Client struct {
	baseURL  string
	agencyID int
	http     *http.Client
	logger   *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API root, mainly for tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithTimeout overrides the fixed request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithAgencyID overrides the agency filter applied to document searches.
func WithAgencyID(id int) Option {
	return func(c *Client) { c.agencyID = id }
}

// NewClient creates a Federal Register client.
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		agencyID: CMSAgencyID,
		http:     &http.Client{Timeout: DefaultTimeout},
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// documentsResponse is the wire shape of /documents.json.
type documentsResponse struct {
	Count   int              `json:"count"`
	Results []model.Document `json:"results"`
}

// Documents searches for documents matching query, newest first.
// perPage is capped at MaxPerPage.
func (c *Client) Documents(ctx context.Context, query string, perPage int) ([]model.Document, error) {
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	params := url.Values{}
	params.Set("conditions[term]", query)
	params.Set("conditions[agency_ids]", strconv.Itoa(c.agencyID))
	params.Set("order", "newest")
	params.Set("per_page", strconv.Itoa(perPage))
	params.Set("page", "1")

	var resp documentsResponse
	if err := c.getJSON(ctx, c.baseURL+"/documents.json?"+params.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// suggestedSearchesResponse maps category name to its entries.
type suggestedSearchesResponse map[string][]model.SuggestedSearch

// SuggestedSearches returns suggested searches whose title contains any
// of the given keywords (case-insensitive).
func (c *Client) SuggestedSearches(ctx context.Context, keywords []string) ([]model.SuggestedSearch, error) {
	var resp suggestedSearchesResponse
	if err := c.getJSON(ctx, c.baseURL+"/suggested_searches", &resp); err != nil {
		return nil, err
	}

	var matched []model.SuggestedSearch
	for _, items := range resp {
		for _, item := range items {
			title := strings.ToLower(item.Title)
			for _, kw := range keywords {
				if strings.Contains(title, strings.ToLower(kw)) {
					matched = append(matched, item)
					break
				}
			}
		}
	}
	return matched, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		c.logger.Warn("upstream returned non-2xx", zap.String("url", rawURL), zap.Int("status", res.StatusCode))
		return fmt.Errorf("%w: status %d", ErrFetch, res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		c.logger.Warn("upstream payload malformed", zap.String("url", rawURL), zap.Error(err))
		return fmt.Errorf("%w: decode: %v", ErrFetch, err)
	}
	return nil
}
