// Package schema defines the administrative surface of the remote document
// store: databases, collections, typed attributes, indexes, buckets and
// documents.
package schema

import (
	"context"
)

// Database is a remote database.
type Database struct {
	ID      string `json:"$id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Collection is a remote collection.
type Collection struct {
	ID          string   `json:"$id"`
	DatabaseID  string   `json:"databaseId"`
	Name        string   `json:"name"`
	Permissions []string `json:"$permissions"`
	Enabled     bool     `json:"enabled"`
}

// AttributeStatus is the materialization state of an attribute.
type AttributeStatus string

const (
	StatusAvailable  AttributeStatus = "available"
	StatusProcessing AttributeStatus = "processing"
	StatusDeleting   AttributeStatus = "deleting"
	StatusStuck      AttributeStatus = "stuck"
	StatusFailed     AttributeStatus = "failed"
)

// Terminal reports whether the status will not change on its own.
func (s AttributeStatus) Terminal() bool {
	return s == StatusAvailable || s == StatusStuck || s == StatusFailed
}

// Attribute is the remote view of an attribute.
type Attribute struct {
	Key      string          `json:"key"`
	Type     string          `json:"type"`
	Status   AttributeStatus `json:"status"`
	Error    string          `json:"error,omitempty"`
	Required bool            `json:"required"`
	Size     int             `json:"size,omitempty"`
	Default  any             `json:"default,omitempty"`
}

// Index is the remote view of an index.
type Index struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Status     string   `json:"status"`
	Attributes []string `json:"attributes"`
}

// Bucket is a remote storage bucket.
type Bucket struct {
	ID      string `json:"$id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// Document is a stored document. System fields are prefixed with '$'.
type Document map[string]any

// GetID returns the document's $id.
func (d Document) GetID() string {
	if id, ok := d["$id"].(string); ok {
		return id
	}
	return ""
}

// DocumentList is one page of documents plus the collection total.
type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// ListOptions restricts ListDocuments. Queries use the remote query syntax.
type ListOptions struct {
	Queries []string
}

// StringAttribute is the payload of CreateStringAttribute.
type StringAttribute struct {
	Key      string  `json:"key"`
	Size     int     `json:"size"`
	Required bool    `json:"required"`
	Default  *string `json:"default"`
}

// IntegerAttribute is the payload of CreateIntegerAttribute.
type IntegerAttribute struct {
	Key      string `json:"key"`
	Required bool   `json:"required"`
	Min      *int64 `json:"min,omitempty"`
	Max      *int64 `json:"max,omitempty"`
	Default  *int64 `json:"default"`
}

// FloatAttribute is the payload of CreateFloatAttribute.
type FloatAttribute struct {
	Key      string   `json:"key"`
	Required bool     `json:"required"`
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Default  *float64 `json:"default"`
}

// BooleanAttribute is the payload of CreateBooleanAttribute.
type BooleanAttribute struct {
	Key      string `json:"key"`
	Required bool   `json:"required"`
	Default  *bool  `json:"default"`
}

// DatetimeAttribute is the payload of CreateDatetimeAttribute.
type DatetimeAttribute struct {
	Key      string  `json:"key"`
	Required bool    `json:"required"`
	Default  *string `json:"default"`
}

// IndexDefinition is the payload of CreateIndex.
type IndexDefinition struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
}

// Client is the remote schema administration client.
// Every failure is an *Error; use KindOf to classify it.
type Client interface {
	CreateDatabase(ctx context.Context, id, name string) (*Database, error)
	GetDatabase(ctx context.Context, id string) (*Database, error)

	CreateCollection(ctx context.Context, databaseID, id, name string, permissions []string) (*Collection, error)
	GetCollection(ctx context.Context, databaseID, id string) (*Collection, error)

	CreateStringAttribute(ctx context.Context, databaseID, collectionID string, attr StringAttribute) error
	CreateIntegerAttribute(ctx context.Context, databaseID, collectionID string, attr IntegerAttribute) error
	CreateFloatAttribute(ctx context.Context, databaseID, collectionID string, attr FloatAttribute) error
	CreateBooleanAttribute(ctx context.Context, databaseID, collectionID string, attr BooleanAttribute) error
	CreateDatetimeAttribute(ctx context.Context, databaseID, collectionID string, attr DatetimeAttribute) error

	CreateIndex(ctx context.Context, databaseID, collectionID string, index IndexDefinition) error

	GetBucket(ctx context.Context, id string) (*Bucket, error)

	CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (Document, error)
	GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (Document, error)
	ListDocuments(ctx context.Context, databaseID, collectionID string, opts ListOptions) (*DocumentList, error)
}

// AttributeInspector is implemented by clients that can report attribute
// materialization status.
type AttributeInspector interface {
	GetAttribute(ctx context.Context, databaseID, collectionID, key string) (*Attribute, error)
}
