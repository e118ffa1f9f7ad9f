// Package ols fetches ontology terms from the EBI OLS API. Unlike the
// BioThings taxonomy, OLS paginates children natively, so pagination
// metadata passes straight through. Term IRIs must be double URL-encoded
// when embedded in a request path.
package ols

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dataportal-labs/ontoview/pkg/model"
	"github.com/dataportal-labs/ontoview/pkg/ontology"
)

// DefaultBaseURL is the public OLS4 API.
const DefaultBaseURL = "https://www.ebi.ac.uk/ols4/api"

// DefaultTimeout bounds a single upstream request.
const DefaultTimeout = 15 * time.Second

// ancestorsPageSize caps the ancestors fetch; lineages deeper than this do
// not occur in practice.
const ancestorsPageSize = 100

// Client talks to the OLS API for a single ontology.
type Client struct {
	ontologyName model.Ontology
	baseURL      string
	httpc        *http.Client
	log          *zap.Logger
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

// NewClient creates an OLS client scoped to one ontology.
func NewClient(name model.Ontology, opts ...Option) *Client {
	c := &Client{
		ontologyName: name,
		baseURL:      DefaultBaseURL,
		httpc:        &http.Client{Timeout: DefaultTimeout},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// term is one OLS term payload.
type term struct {
	IRI          string   `json:"iri"`
	Label        string   `json:"label"`
	ShortForm    string   `json:"short_form"`
	OntologyName string   `json:"ontology_name"`
	IsRoot       bool     `json:"is_root"`
	HasChildren  bool     `json:"has_children"`
	Synonyms     []string `json:"synonyms"`
}

// termList is the embedded collection shape OLS uses for ancestors and
// children, with native pagination metadata.
type termList struct {
	Embedded struct {
		Terms []term `json:"terms"`
	} `json:"_embedded"`
	Page struct {
		Number        int `json:"number"`
		TotalPages    int `json:"totalPages"`
		TotalElements int `json:"totalElements"`
	} `json:"page"`
}

// FetchLineage returns the root-first ancestor chain for a term id. OLS
// has no single lineage endpoint: the term itself and its ancestors are
// fetched separately, concatenated leaf-first, chained through parent
// pointers, and reversed.
func (c *Client) FetchLineage(ctx context.Context, id string) ([]model.LineageItem, error) {
	if id == "" {
		return nil, ontology.ErrMissingID
	}

	iri := model.FormatIRI(id, c.ontologyName)
	encoded := model.DoubleEncodeIRI(iri)

	var self term
	if err := c.getJSON(ctx, fmt.Sprintf("%s/ontologies/%s/terms/%s", c.baseURL, c.ontologyName, encoded), &self); err != nil {
		return nil, err
	}

	var ancestors termList
	url := fmt.Sprintf("%s/ontologies/%s/terms/%s/ancestors?size=%d", c.baseURL, c.ontologyName, encoded, ancestorsPageSize)
	if err := c.getJSON(ctx, url, &ancestors); err != nil {
		return nil, err
	}

	// Leaf-first: the queried term, then its ancestors walking upward.
	raw := append([]term{self}, ancestors.Embedded.Terms...)
	items := make([]model.LineageItem, len(raw))
	for i, t := range raw {
		item := c.mapTerm(t)
		item.Selected = i == 0
		item.Opened = i != 0
		if i+1 < len(raw) {
			parent := termID(raw[i+1])
			item.ParentTaxonID = &parent
		}
		items[i] = item
	}

	// Reverse to root-first.
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}

// FetchChildren returns one natively paginated page of node's children.
func (c *Client) FetchChildren(ctx context.Context, node model.LineageItem, page, pageSize int) (model.ChildrenPage, error) {
	if node.TaxonID == "" {
		return model.ChildrenPage{}, ontology.ErrMissingID
	}
	if pageSize <= 0 {
		pageSize = model.DefaultPageSize
	}

	encoded := model.DoubleEncodeIRI(model.FormatIRI(node.TaxonID, c.ontologyName))
	url := fmt.Sprintf("%s/ontologies/%s/terms/%s/children?page=%d&size=%d", c.baseURL, c.ontologyName, encoded, page, pageSize)

	var list termList
	if err := c.getJSON(ctx, url, &list); err != nil {
		return model.ChildrenPage{}, err
	}

	children := make([]model.LineageItem, len(list.Embedded.Terms))
	for i, t := range list.Embedded.Terms {
		item := c.mapTerm(t)
		parent := node.TaxonID
		item.ParentTaxonID = &parent
		item.Opened = false
		item.Selected = false
		children[i] = item
	}
	return model.ChildrenPage{
		Children: children,
		Pagination: model.Pagination{
			HasMore:       list.Page.Number < list.Page.TotalPages-1,
			NumPage:       list.Page.Number,
			TotalPages:    list.Page.TotalPages,
			TotalElements: list.Page.TotalElements,
		},
	}, nil
}

// mapTerm normalizes an OLS term into a LineageItem. The parent pointer is
// filled in by the caller; OLS terms do not carry one.
func (c *Client) mapTerm(t term) model.LineageItem {
	id := termID(t)
	name := c.ontologyName
	if t.OntologyName != "" {
		name = model.Ontology(t.OntologyName)
	}
	iri := t.IRI
	if iri == "" {
		iri = model.FormatIRI(id, name)
	}
	return model.LineageItem{
		ID:          t.ShortForm,
		TaxonID:     id,
		Label:       strings.ToLower(t.Label),
		CommonName:  t.Synonyms,
		Ontology:    name,
		IRI:         iri,
		HasChildren: t.HasChildren,
	}
}

// termID extracts the bare id from an OLS short form, e.g. "topic_0121"
// -> "0121" and "NCBITaxon_9606" -> "9606".
func termID(t term) string {
	if i := strings.LastIndex(t.ShortForm, "_"); i >= 0 {
		return t.ShortForm[i+1:]
	}
	return t.ShortForm
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("ols request",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("ols returned status: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
