package papers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const atomFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>arXiv Query Results</title>
  <entry>
    <id>http://arxiv.org/abs/2608.00001v1</id>
    <title>A Study of Sorting Networks</title>
    <summary>We revisit sorting networks.</summary>
    <published>2026-08-14T00:00:00Z</published>
    <author><name>A. Author</name></author>
    <link href="http://arxiv.org/abs/2608.00001v1" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2608.00002v1</id>
    <title>Transformer Models for Healthcare Records</title>
    <summary>Medical record modeling with transformers.</summary>
    <published>2026-08-13T00:00:00Z</published>
    <author><name>B. Author</name></author>
    <author><name>C. Author</name></author>
    <link href="http://arxiv.org/abs/2608.00002v1" rel="alternate" type="text/html"/>
  </entry>
</feed>`

func testFetcher(t *testing.T, endpoint string) *Fetcher {
	t.Helper()
	f := NewFetcher(zap.NewNop(), endpoint, nil, nil, 0)
	f.now = func() time.Time { return time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestPaperOfTheDayPicksKeywordMatch(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "cat:cs.LG OR cat:cs.CL", q.Get("search_query"))
		assert.Equal(t, "submittedDate", q.Get("sortBy"))
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(atomFeed))
	}))
	defer upstream.Close()

	f := testFetcher(t, upstream.URL)
	paper, err := f.PaperOfTheDay(context.Background())
	require.NoError(t, err)

	// The second entry is a day older but hits three keywords.
	assert.Equal(t, "Transformer Models for Healthcare Records", paper.Title)
	assert.Equal(t, []string{"B. Author", "C. Author"}, paper.Authors)
	assert.Equal(t, "http://arxiv.org/pdf/2608.00002v1", paper.PDFURL)
	assert.Greater(t, paper.Score, 0.0)
}

func TestPaperOfTheDayUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	f := testFetcher(t, upstream.URL)
	_, err := f.PaperOfTheDay(context.Background())
	assert.Error(t, err)
}

func TestPaperOfTheDayEmptyFeed(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><feed xmlns="http://www.w3.org/2005/Atom"><title>empty</title></feed>`))
	}))
	defer upstream.Close()

	f := testFetcher(t, upstream.URL)
	_, err := f.PaperOfTheDay(context.Background())
	assert.Error(t, err)
}

func TestPDFURL(t *testing.T) {
	assert.Equal(t, "http://arxiv.org/pdf/2608.00001v1", pdfURL("http://arxiv.org/abs/2608.00001v1"))
	assert.Equal(t, "http://example.com/x.pdf", pdfURL("http://example.com/x.pdf"))
	assert.Equal(t, "http://example.com/x.pdf", pdfURL("http://example.com/x"))
}
