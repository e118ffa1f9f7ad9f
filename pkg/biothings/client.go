// Package biothings fetches NCBI Taxonomy terms from the BioThings
// taxonomy API. Lineages come from the taxon summary endpoint followed by
// a batch detail lookup; children have no native server-side pagination,
// so pages are sliced client-side from the full children id list.
package biothings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dataportal-labs/ontoview/pkg/model"
	"github.com/dataportal-labs/ontoview/pkg/ontology"
)

// DefaultBaseURL is the public BioThings taxonomy API.
const DefaultBaseURL = "https://t.biothings.io/v1"

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 15 * time.Second

// detailFields are the record fields requested from the batch endpoint.
var detailFields = []string{
	"taxid",
	"parent_taxid",
	"scientific_name",
	"rank",
	"common_name",
	"genbank_common_name",
	"children",
}

// Client talks to the BioThings taxonomy API. It is a stateless one-shot
// fetcher: no retries, no caching.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
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

// NewClient creates a BioThings client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpc:   &http.Client{Timeout: DefaultTimeout},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// taxonSummary is the response of GET /taxon/{id}?include_children.
type taxonSummary struct {
	TaxID    int64   `json:"taxid"`
	Lineage  []int64 `json:"lineage"`
	Children []int64 `json:"children"`
}

// taxonRecord is one detailed record from POST /taxon.
type taxonRecord struct {
	TaxID             int64      `json:"taxid"`
	ParentTaxID       int64      `json:"parent_taxid"`
	ScientificName    string     `json:"scientific_name"`
	Rank              string     `json:"rank"`
	CommonName        stringList `json:"common_name"`
	GenbankCommonName stringList `json:"genbank_common_name"`
	Children          []int64    `json:"children"`
}

// stringList accepts either a single string or an array of strings, both
// of which BioThings emits for common names.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = stringList(many)
	return nil
}

// FetchLineage returns the root-first ancestor chain for a taxon id. The
// summary endpoint yields the leaf-first lineage id list; a batch detail
// lookup fills in names and parents, and the result is reversed so the
// root comes first. The queried taxon ends up last, marked Selected; every
// other entry is marked Opened as a default-expansion hint.
func (c *Client) FetchLineage(ctx context.Context, id string) ([]model.LineageItem, error) {
	if id == "" {
		return nil, ontology.ErrMissingID
	}

	var summary taxonSummary
	if err := c.getJSON(ctx, fmt.Sprintf("%s/taxon/%s?include_children", c.baseURL, id), &summary); err != nil {
		return nil, err
	}
	if len(summary.Lineage) == 0 {
		return nil, fmt.Errorf("taxon %s has no lineage", id)
	}

	records, err := c.fetchRecords(ctx, summary.Lineage)
	if err != nil {
		return nil, err
	}

	// Leaf-first mapping: the first record is the queried taxon.
	items := make([]model.LineageItem, len(records))
	for i, rec := range records {
		item := c.mapRecord(rec)
		item.Selected = i == 0
		item.Opened = i != 0
		items[i] = item
	}

	// Reverse to root-first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// FetchChildren returns one client-side sliced page of node's children.
func (c *Client) FetchChildren(ctx context.Context, node model.LineageItem, page, pageSize int) (model.ChildrenPage, error) {
	if node.TaxonID == "" {
		return model.ChildrenPage{}, ontology.ErrMissingID
	}

	var summary taxonSummary
	if err := c.getJSON(ctx, fmt.Sprintf("%s/taxon/%s?include_children", c.baseURL, node.TaxonID), &summary); err != nil {
		return model.ChildrenPage{}, err
	}

	pagination := model.PaginationFor(len(summary.Children), page, pageSize)
	lo, hi := model.PageBounds(len(summary.Children), page, pageSize)
	ids := summary.Children[lo:hi]
	if len(ids) == 0 {
		return model.ChildrenPage{Children: []model.LineageItem{}, Pagination: pagination}, nil
	}

	records, err := c.fetchRecords(ctx, ids)
	if err != nil {
		return model.ChildrenPage{}, err
	}

	children := make([]model.LineageItem, len(records))
	for i, rec := range records {
		item := c.mapRecord(rec)
		parent := node.TaxonID
		item.ParentTaxonID = &parent
		item.Opened = false
		item.Selected = false
		children[i] = item
	}
	return model.ChildrenPage{Children: children, Pagination: pagination}, nil
}

// fetchRecords batch-fetches detailed records for a list of taxon ids.
func (c *Client) fetchRecords(ctx context.Context, ids []int64) ([]taxonRecord, error) {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	body := map[string]any{
		"ids":    strings.Join(parts, ","),
		"fields": detailFields,
	}

	var records []taxonRecord
	if err := c.postJSON(ctx, c.baseURL+"/taxon", body, &records); err != nil {
		return nil, err
	}
	if len(records) != len(ids) {
		return nil, fmt.Errorf("requested %d taxon records, got %d", len(ids), len(records))
	}
	return records, nil
}

// mapRecord normalizes a BioThings record into a LineageItem. A record
// whose parent id equals its own id is the lineage root.
func (c *Client) mapRecord(rec taxonRecord) model.LineageItem {
	taxonID := strconv.FormatInt(rec.TaxID, 10)
	item := model.LineageItem{
		ID:          taxonID,
		TaxonID:     taxonID,
		Label:       strings.ToLower(rec.ScientificName),
		Ontology:    model.OntologyNCBITaxon,
		IRI:         model.FormatIRI(taxonID, model.OntologyNCBITaxon),
		HasChildren: len(rec.Children) > 0,
	}
	if rec.ParentTaxID != rec.TaxID {
		parent := strconv.FormatInt(rec.ParentTaxID, 10)
		item.ParentTaxonID = &parent
	}

	seen := make(map[string]bool)
	for _, name := range append(rec.CommonName, rec.GenbankCommonName...) {
		if name != "" && !seen[name] {
			seen[name] = true
			item.CommonName = append(item.CommonName, name)
		}
	}
	return item
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("biothings request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("biothings returned status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
