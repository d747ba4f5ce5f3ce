// Package appwrite implements schema.Client over the Appwrite REST admin API.
package appwrite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"

	sch "github.com/syntrixbase/schemasync/internal/schema"
)

const (
	headerProject = "X-Appwrite-Project"
	headerKey     = "X-Appwrite-Key"
)

// Options configures a Client.
type Options struct {
	Endpoint   string // e.g. https://cloud.appwrite.io/v1
	ProjectID  string
	APIKey     string
	HTTPClient *http.Client
}

// Client is a remote client for the Appwrite admin API.
type Client struct {
	baseURL    string
	projectID  string
	apiKey     string
	httpClient *http.Client
	encoder    *schema.Encoder
}

var (
	_ sch.Client             = (*Client)(nil)
	_ sch.AttributeInspector = (*Client)(nil)
)

// New creates a new Appwrite Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.Endpoint, "/"),
		projectID:  opts.ProjectID,
		apiKey:     opts.APIKey,
		httpClient: httpClient,
		encoder:    schema.NewEncoder(),
	}
}

// errorBody is the JSON error envelope returned by the API.
type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Type    string `json:"type"`
}

// listQuery is encoded into the query string of list calls.
type listQuery struct {
	Queries []string `schema:"queries[],omitempty"`
}

func (c *Client) CreateDatabase(ctx context.Context, id, name string) (*sch.Database, error) {
	var db sch.Database
	body := map[string]any{"databaseId": id, "name": name}
	if err := c.do(ctx, "create_database", http.MethodPost, "/databases", nil, body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *Client) GetDatabase(ctx context.Context, id string) (*sch.Database, error) {
	var db sch.Database
	if err := c.do(ctx, "get_database", http.MethodGet, join("databases", id), nil, nil, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

func (c *Client) CreateCollection(ctx context.Context, databaseID, id, name string, permissions []string) (*sch.Collection, error) {
	var coll sch.Collection
	body := map[string]any{
		"collectionId":     id,
		"name":             name,
		"permissions":      permissions,
		"documentSecurity": false,
	}
	if err := c.do(ctx, "create_collection", http.MethodPost, join("databases", databaseID, "collections"), nil, body, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

func (c *Client) GetCollection(ctx context.Context, databaseID, id string) (*sch.Collection, error) {
	var coll sch.Collection
	if err := c.do(ctx, "get_collection", http.MethodGet, join("databases", databaseID, "collections", id), nil, nil, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

func (c *Client) CreateStringAttribute(ctx context.Context, databaseID, collectionID string, attr sch.StringAttribute) error {
	return c.createAttribute(ctx, "string", databaseID, collectionID, attr)
}

func (c *Client) CreateIntegerAttribute(ctx context.Context, databaseID, collectionID string, attr sch.IntegerAttribute) error {
	return c.createAttribute(ctx, "integer", databaseID, collectionID, attr)
}

func (c *Client) CreateFloatAttribute(ctx context.Context, databaseID, collectionID string, attr sch.FloatAttribute) error {
	return c.createAttribute(ctx, "float", databaseID, collectionID, attr)
}

func (c *Client) CreateBooleanAttribute(ctx context.Context, databaseID, collectionID string, attr sch.BooleanAttribute) error {
	return c.createAttribute(ctx, "boolean", databaseID, collectionID, attr)
}

func (c *Client) CreateDatetimeAttribute(ctx context.Context, databaseID, collectionID string, attr sch.DatetimeAttribute) error {
	return c.createAttribute(ctx, "datetime", databaseID, collectionID, attr)
}

func (c *Client) createAttribute(ctx context.Context, kind, databaseID, collectionID string, body any) error {
	path := join("databases", databaseID, "collections", collectionID, "attributes", kind)
	return c.do(ctx, "create_"+kind+"_attribute", http.MethodPost, path, nil, body, nil)
}

// GetAttribute returns the attribute with its materialization status.
func (c *Client) GetAttribute(ctx context.Context, databaseID, collectionID, key string) (*sch.Attribute, error) {
	var attr sch.Attribute
	path := join("databases", databaseID, "collections", collectionID, "attributes", key)
	if err := c.do(ctx, "get_attribute", http.MethodGet, path, nil, nil, &attr); err != nil {
		return nil, err
	}
	return &attr, nil
}

func (c *Client) CreateIndex(ctx context.Context, databaseID, collectionID string, index sch.IndexDefinition) error {
	path := join("databases", databaseID, "collections", collectionID, "indexes")
	return c.do(ctx, "create_index", http.MethodPost, path, nil, index, nil)
}

func (c *Client) GetBucket(ctx context.Context, id string) (*sch.Bucket, error) {
	var bucket sch.Bucket
	if err := c.do(ctx, "get_bucket", http.MethodGet, join("storage", "buckets", id), nil, nil, &bucket); err != nil {
		return nil, err
	}
	return &bucket, nil
}

func (c *Client) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (sch.Document, error) {
	var doc sch.Document
	body := map[string]any{"documentId": documentID, "data": data}
	path := join("databases", databaseID, "collections", collectionID, "documents")
	if err := c.do(ctx, "create_document", http.MethodPost, path, nil, body, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (sch.Document, error) {
	var doc sch.Document
	path := join("databases", databaseID, "collections", collectionID, "documents", documentID)
	if err := c.do(ctx, "get_document", http.MethodGet, path, nil, nil, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *Client) ListDocuments(ctx context.Context, databaseID, collectionID string, opts sch.ListOptions) (*sch.DocumentList, error) {
	query := url.Values{}
	if err := c.encoder.Encode(listQuery{Queries: opts.Queries}, query); err != nil {
		return nil, &sch.Error{Kind: sch.KindValidation, Op: "list_documents", Err: err}
	}

	var list sch.DocumentList
	path := join("databases", databaseID, "collections", collectionID, "documents")
	if err := c.do(ctx, "list_documents", http.MethodGet, path, query, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// do issues one request and decodes a 2xx body into out. Every failure is
// returned as a *schema.Error.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	start := time.Now()
	defer func() {
		RequestLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = string(sch.KindOf(err))
		}
		RequestsTotal.WithLabelValues(op, outcome).Inc()
	}()

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &sch.Error{Kind: sch.KindValidation, Op: op, Err: err}
		}
		reader = bytes.NewReader(jsonData)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return &sch.Error{Kind: sch.KindService, Op: op, Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerProject, c.projectID)
	req.Header.Set(headerKey, c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &sch.Error{Kind: sch.KindService, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(op, resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return &sch.Error{Kind: sch.KindService, Op: op, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func decodeError(op string, resp *http.Response) error {
	e := &sch.Error{Kind: kindForStatus(resp.StatusCode), Op: op, Status: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if len(data) > 0 && json.Unmarshal(data, &eb) == nil {
		e.Message = eb.Message
		e.Type = eb.Type
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(data))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

func kindForStatus(status int) sch.Kind {
	switch status {
	case http.StatusConflict:
		return sch.KindConflict
	case http.StatusNotFound:
		return sch.KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return sch.KindValidation
	default:
		return sch.KindService
	}
}

// join builds an escaped URL path from segments.
func join(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
