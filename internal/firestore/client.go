// Package firestore reads time entries, users and activities from the
// Firestore database the hosted timesheet keeps, over the REST API.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	baseURL  = "https://firestore.googleapis.com/v1"
	pageSize = 300
)

// Client is a read-only Firestore REST client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	project    string
	database   string
}

// NewClient creates a client for project/database. An empty base uses the
// production endpoint.
func NewClient(hc *http.Client, base, project, database string) *Client {
	if base == "" {
		base = baseURL
	}
	return &Client{httpClient: hc, baseURL: base, project: project, database: database}
}

func (c *Client) documentsPath() string {
	return fmt.Sprintf("projects/%s/databases/%s/documents", c.project, c.database)
}

// FieldFilter compares one field against a value. Op is a Firestore operator
// such as EQUAL or GREATER_THAN_OR_EQUAL.
type FieldFilter struct {
	Field string
	Op    string
	Value Value
}

type fieldRef struct {
	FieldPath string `json:"fieldPath"`
}

type fieldFilterJSON struct {
	Field fieldRef `json:"field"`
	Op    string   `json:"op"`
	Value Value    `json:"value"`
}

type filterJSON struct {
	FieldFilter     *fieldFilterJSON     `json:"fieldFilter,omitempty"`
	CompositeFilter *compositeFilterJSON `json:"compositeFilter,omitempty"`
}

type compositeFilterJSON struct {
	Op      string       `json:"op"`
	Filters []filterJSON `json:"filters"`
}

type structuredQuery struct {
	From  []collectionSelector `json:"from"`
	Where *filterJSON          `json:"where,omitempty"`
}

type collectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type runQueryRequest struct {
	StructuredQuery structuredQuery `json:"structuredQuery"`
}

type runQueryResult struct {
	Document *Document `json:"document"`
}

// RunQuery returns the documents of collection matching every filter.
func (c *Client) RunQuery(ctx context.Context, collection string, filters ...FieldFilter) ([]Document, error) {
	q := structuredQuery{From: []collectionSelector{{CollectionID: collection}}}
	switch len(filters) {
	case 0:
	case 1:
		q.Where = &filterJSON{FieldFilter: toJSON(filters[0])}
	default:
		composite := &compositeFilterJSON{Op: "AND"}
		for _, f := range filters {
			composite.Filters = append(composite.Filters, filterJSON{FieldFilter: toJSON(f)})
		}
		q.Where = &filterJSON{CompositeFilter: composite}
	}

	body, err := json.Marshal(runQueryRequest{StructuredQuery: q})
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	endpoint := fmt.Sprintf("%s/%s:runQuery", c.baseURL, c.documentsPath())
	var results []runQueryResult
	if err := c.do(ctx, http.MethodPost, endpoint, body, &results); err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		// Results without a document only carry read progress.
		if r.Document != nil {
			docs = append(docs, *r.Document)
		}
	}
	return docs, nil
}

func toJSON(f FieldFilter) *fieldFilterJSON {
	return &fieldFilterJSON{Field: fieldRef{FieldPath: f.Field}, Op: f.Op, Value: f.Value}
}

type listResponse struct {
	Documents     []Document `json:"documents"`
	NextPageToken string     `json:"nextPageToken"`
}

// ListDocuments returns every document in collection, following page tokens.
func (c *Client) ListDocuments(ctx context.Context, collection string) ([]Document, error) {
	var all []Document
	token := ""
	for {
		params := url.Values{"pageSize": {fmt.Sprint(pageSize)}}
		if token != "" {
			params.Set("pageToken", token)
		}
		endpoint := fmt.Sprintf("%s/%s/%s?%s", c.baseURL, c.documentsPath(), collection, params.Encode())

		var page listResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Documents...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("firestore request failed: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("firestore error %d: %s", resp.StatusCode, string(data))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding firestore response: %w", err)
	}
	return nil
}
