// Package search queries the dataset search API for per-taxon dataset
// counts and decorates lineage items with them. Count queries are
// count-only (zero result rows) and run one per item, fanned out
// concurrently and awaited together.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dataportal-labs/ontoview/pkg/model"
)

// DefaultTimeout bounds a single count query.
const DefaultTimeout = 10 * time.Second

// DefaultMaxConcurrent limits in-flight count queries per annotation
// batch.
const DefaultMaxConcurrent = 8

// DefaultQuery matches every dataset when the caller has no search terms.
const DefaultQuery = "__all__"

// Client issues count queries against the search API.
type Client struct {
	baseURL       string
	httpc         *http.Client
	log           *zap.Logger
	maxConcurrent int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the search API base URL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// WithLogger sets the request logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithMaxConcurrent sets the fan-out limit for annotation batches.
func WithMaxConcurrent(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxConcurrent = n
		}
	}
}

// NewClient creates a search count client.
func NewClient(base string, opts ...Option) *Client {
	c := &Client{
		baseURL:       strings.TrimRight(base, "/"),
		httpc:         &http.Client{Timeout: DefaultTimeout},
		log:           zap.NewNop(),
		maxConcurrent: DefaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// countResponse carries the aggregation buckets of a count query.
type countResponse struct {
	Facets struct {
		LineageDocCount struct {
			DocCount int `json:"doc_count"`
		} `json:"lineage_doc_count"`
		Lineage struct {
			ChildrenOfLineage struct {
				ToParent struct {
					DocCount int `json:"doc_count"`
				} `json:"to_parent"`
				TaxonIDs struct {
					Terms []struct {
						Term  json.Number `json:"term"`
						Count int         `json:"count"`
					} `json:"terms"`
				} `json:"taxon_ids"`
			} `json:"children_of_lineage"`
		} `json:"lineage"`
	} `json:"facets"`
}

// Count returns the dataset counts for one taxon id scoped to query, plus
// whether the descendant bucket shows any children with datasets.
func (c *Client) Count(ctx context.Context, query, taxonID string) (model.Counts, bool, error) {
	if query == "" {
		query = DefaultQuery
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("lineage", taxonID)
	params.Set("size", "0")
	reqURL := c.baseURL + "/query?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return model.Counts{}, false, err
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return model.Counts{}, false, err
	}
	defer resp.Body.Close()

	c.log.Debug("count query",
		zap.String("taxon", taxonID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return model.Counts{}, false, fmt.Errorf("search api returned status: %s", resp.Status)
	}

	var body countResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.Counts{}, false, fmt.Errorf("decode count response for taxon %s: %w", taxonID, err)
	}

	direct := body.Facets.LineageDocCount.DocCount
	counts := model.Counts{
		Term:            direct,
		TermAndChildren: direct + body.Facets.Lineage.ChildrenOfLineage.ToParent.DocCount,
	}
	hasDescendants := len(body.Facets.Lineage.ChildrenOfLineage.TaxonIDs.Terms) > 0
	return counts, hasDescendants, nil
}

// Annotate decorates each item with its dataset counts. Queries for all
// items run concurrently and are awaited together; one failing query fails
// the whole batch. The derived HasChildren flag is a logical OR with the
// fetch layer's best-effort flag, never a downgrade.
func (c *Client) Annotate(ctx context.Context, items []model.LineageItem, query string) ([]model.CountedItem, error) {
	counted := make([]model.CountedItem, len(items))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxConcurrent)
	for i, item := range items {
		g.Go(func() error {
			counts, hasDescendants, err := c.Count(ctx, query, item.TaxonID)
			if err != nil {
				return fmt.Errorf("count taxon %s: %w", item.TaxonID, err)
			}
			withCounts := model.CountedItem{LineageItem: item, Counts: counts}
			withCounts.HasChildren = item.HasChildren || hasDescendants
			counted[i] = withCounts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return counted, nil
}
