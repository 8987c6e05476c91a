// Package search implements the web reference lookup against the you.com index.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/gamalhq/gamal/internal/domain/entity"
	"github.com/gamalhq/gamal/internal/domain/service"
	apperrors "github.com/gamalhq/gamal/pkg/errors"
)

const (
	defaultBaseURL = "https://api.ydc-index.io"
	topResults     = 3
	maxAttempts    = 3
	retryWaitTime  = 250 * time.Millisecond
	retryMaxWait   = time.Second
	snippetLimit   = 1000
	requestTimeout = 30 * time.Second
)

// searchResponse mirrors the subset of the you.com payload the pipeline needs.
type searchResponse struct {
	Hits []searchHit `json:"hits"`
}

type searchHit struct {
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Description string   `json:"description"`
	Snippets    []string `json:"snippets"`
}

// Config carries the settings for the search client.
type Config struct {
	// BaseURL overrides the production endpoint, mainly for tests.
	BaseURL string
	APIKey  string
}

// Client queries the web index for references backing an answer.
type Client struct {
	http *resty.Client
	log  *zap.Logger
}

var _ service.Searcher = (*Client)(nil)

// NewClient builds a search client. Transient failures and empty result
// pages are retried up to maxAttempts before the caller sees the outcome.
func NewClient(cfg Config, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout).
		SetHeader("X-API-Key", cfg.APIKey).
		SetRetryCount(maxAttempts - 1).
		SetRetryWaitTime(retryWaitTime).
		SetRetryMaxWaitTime(retryMaxWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			if r.IsError() {
				return true
			}
			res, ok := r.Result().(*searchResponse)
			return ok && len(res.Hits) == 0
		})

	return &Client{http: rc, log: log}
}

// Search runs the cleaned keyphrases against the index and maps the top hits
// into references. Exhausting all attempts on empty result pages yields an
// empty slice and no error; the answer stage degrades gracefully from there.
func (c *Client) Search(ctx context.Context, keyphrases string) ([]entity.Reference, error) {
	query := cleanQuery(keyphrases)
	if query == "" {
		return nil, nil
	}

	var result searchResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("query", query).
		SetQueryParam("num_web_results", strconv.Itoa(topResults)).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, apperrors.NewSearchError("search request failed", err)
	}
	if resp.IsError() {
		return nil, apperrors.NewSearchError(fmt.Sprintf("search endpoint returned %d", resp.StatusCode()), nil)
	}

	refs := toReferences(result.Hits)
	c.log.Debug("search finished",
		zap.String("query", query),
		zap.Int("attempts", resp.Request.Attempt),
		zap.Int("hits", len(refs)))
	return refs, nil
}

// cleanQuery strips the punctuation the reason stage tends to leave around
// keyphrases: a trailing period and one wrapping quote pair.
func cleanQuery(keyphrases string) string {
	q := strings.TrimSpace(keyphrases)
	q = strings.TrimSuffix(q, ".")
	if len(q) >= 2 && strings.HasPrefix(q, `"`) && strings.HasSuffix(q, `"`) {
		q = q[1 : len(q)-1]
	}
	return strings.TrimSpace(q)
}

func toReferences(hits []searchHit) []entity.Reference {
	if len(hits) > topResults {
		hits = hits[:topResults]
	}
	refs := make([]entity.Reference, 0, len(hits))
	for i, hit := range hits {
		refs = append(refs, entity.Reference{
			Position: i + 1,
			Title:    hit.Title,
			URL:      hit.URL,
			Snippet:  hit.Description + truncate(strings.Join(hit.Snippets, "\n"), snippetLimit),
		})
	}
	return refs
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
