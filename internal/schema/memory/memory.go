// Package memory provides an in-memory, eventually consistent implementation
// of schema.Client. New attributes stay in "processing" until they have been
// inspected a configurable number of times.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/syntrixbase/schemasync/internal/schema"
)

// Call records one client invocation.
type Call struct {
	Op           string
	DatabaseID   string
	CollectionID string
	Key          string
	Payload      any
}

// Hook can fail an invocation before it is applied. Returning nil lets the
// call proceed.
type Hook func(call Call) error

type attribute struct {
	schema.Attribute
	pollsLeft int
}

type collection struct {
	schema.Collection
	attributes []*attribute
	indexes    []schema.Index
	documents  map[string]schema.Document
	order      []string
}

type database struct {
	schema.Database
	collections map[string]*collection
}

// Service is a thread-safe fake remote schema service.
type Service struct {
	mu        sync.Mutex
	databases map[string]*database
	buckets   map[string]schema.Bucket
	calls     []Call
	hook      Hook
	polls     int
}

var (
	_ schema.Client             = (*Service)(nil)
	_ schema.AttributeInspector = (*Service)(nil)
)

// Option configures a Service.
type Option func(*Service)

// WithPollsUntilAvailable sets how many GetAttribute calls an attribute
// reports "processing" before becoming available. Zero makes attributes
// available immediately.
func WithPollsUntilAvailable(n int) Option {
	return func(s *Service) { s.polls = n }
}

// WithBucket registers a storage bucket.
func WithBucket(id, name string) Option {
	return func(s *Service) {
		s.buckets[id] = schema.Bucket{ID: id, Name: name, Enabled: true}
	}
}

// WithHook installs a failure-injection hook.
func WithHook(h Hook) Option {
	return func(s *Service) { s.hook = h }
}

// New creates an empty Service.
func New(opts ...Option) *Service {
	s := &Service{
		databases: make(map[string]*database),
		buckets:   make(map[string]schema.Bucket),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetHook replaces the failure-injection hook.
func (s *Service) SetHook(h Hook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Calls returns a copy of every recorded call, in order.
func (s *Service) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// ResetCalls clears the call log.
func (s *Service) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

// record logs the call and runs the hook. Must hold s.mu.
func (s *Service) record(ctx context.Context, call Call) error {
	s.calls = append(s.calls, call)
	if err := ctx.Err(); err != nil {
		return &schema.Error{Kind: schema.KindService, Op: call.Op, Err: err}
	}
	if s.hook != nil {
		return s.hook(call)
	}
	return nil
}

func notFound(op, format string, args ...any) error {
	return &schema.Error{Kind: schema.KindNotFound, Op: op, Status: 404, Message: fmt.Sprintf(format, args...)}
}

func conflict(op, format string, args ...any) error {
	return &schema.Error{Kind: schema.KindConflict, Op: op, Status: 409, Message: fmt.Sprintf(format, args...)}
}

func invalid(op, format string, args ...any) error {
	return &schema.Error{Kind: schema.KindValidation, Op: op, Status: 400, Message: fmt.Sprintf(format, args...)}
}

func (s *Service) CreateDatabase(ctx context.Context, id, name string) (*schema.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "create_database", DatabaseID: id, Payload: name}); err != nil {
		return nil, err
	}
	if _, ok := s.databases[id]; ok {
		return nil, conflict("create_database", "Database %q already exists.", id)
	}
	db := &database{
		Database:    schema.Database{ID: id, Name: name, Enabled: true},
		collections: make(map[string]*collection),
	}
	s.databases[id] = db
	out := db.Database
	return &out, nil
}

func (s *Service) GetDatabase(ctx context.Context, id string) (*schema.Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "get_database", DatabaseID: id}); err != nil {
		return nil, err
	}
	db, ok := s.databases[id]
	if !ok {
		return nil, notFound("get_database", "Database %q not found.", id)
	}
	out := db.Database
	return &out, nil
}

func (s *Service) CreateCollection(ctx context.Context, databaseID, id, name string, permissions []string) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "create_collection", DatabaseID: databaseID, CollectionID: id, Payload: permissions}); err != nil {
		return nil, err
	}
	db, ok := s.databases[databaseID]
	if !ok {
		return nil, notFound("create_collection", "Database %q not found.", databaseID)
	}
	if _, ok := db.collections[id]; ok {
		return nil, conflict("create_collection", "Collection %q already exists.", id)
	}
	coll := &collection{
		Collection: schema.Collection{
			ID:          id,
			DatabaseID:  databaseID,
			Name:        name,
			Permissions: append([]string(nil), permissions...),
			Enabled:     true,
		},
		documents: make(map[string]schema.Document),
	}
	db.collections[id] = coll
	out := coll.Collection
	return &out, nil
}

func (s *Service) GetCollection(ctx context.Context, databaseID, id string) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "get_collection", DatabaseID: databaseID, CollectionID: id}); err != nil {
		return nil, err
	}
	coll, err := s.collection("get_collection", databaseID, id)
	if err != nil {
		return nil, err
	}
	out := coll.Collection
	return &out, nil
}

// collection looks up a collection. Must hold s.mu.
func (s *Service) collection(op, databaseID, id string) (*collection, error) {
	db, ok := s.databases[databaseID]
	if !ok {
		return nil, notFound(op, "Database %q not found.", databaseID)
	}
	coll, ok := db.collections[id]
	if !ok {
		return nil, notFound(op, "Collection %q not found.", id)
	}
	return coll, nil
}

func (s *Service) CreateStringAttribute(ctx context.Context, databaseID, collectionID string, attr schema.StringAttribute) error {
	if attr.Size <= 0 {
		return s.reject(ctx, "create_string_attribute", databaseID, collectionID, attr.Key, attr, "Invalid size: must be a positive integer")
	}
	var def any
	if attr.Default != nil {
		def = *attr.Default
	}
	return s.addAttribute(ctx, "create_string_attribute", databaseID, collectionID, attr,
		schema.Attribute{Key: attr.Key, Type: "string", Size: attr.Size, Required: attr.Required, Default: def})
}

func (s *Service) CreateIntegerAttribute(ctx context.Context, databaseID, collectionID string, attr schema.IntegerAttribute) error {
	var def any
	if attr.Default != nil {
		def = *attr.Default
	}
	return s.addAttribute(ctx, "create_integer_attribute", databaseID, collectionID, attr,
		schema.Attribute{Key: attr.Key, Type: "integer", Required: attr.Required, Default: def})
}

func (s *Service) CreateFloatAttribute(ctx context.Context, databaseID, collectionID string, attr schema.FloatAttribute) error {
	var def any
	if attr.Default != nil {
		def = *attr.Default
	}
	return s.addAttribute(ctx, "create_float_attribute", databaseID, collectionID, attr,
		schema.Attribute{Key: attr.Key, Type: "double", Required: attr.Required, Default: def})
}

func (s *Service) CreateBooleanAttribute(ctx context.Context, databaseID, collectionID string, attr schema.BooleanAttribute) error {
	var def any
	if attr.Default != nil {
		def = *attr.Default
	}
	return s.addAttribute(ctx, "create_boolean_attribute", databaseID, collectionID, attr,
		schema.Attribute{Key: attr.Key, Type: "boolean", Required: attr.Required, Default: def})
}

func (s *Service) CreateDatetimeAttribute(ctx context.Context, databaseID, collectionID string, attr schema.DatetimeAttribute) error {
	var def any
	if attr.Default != nil {
		def = *attr.Default
	}
	return s.addAttribute(ctx, "create_datetime_attribute", databaseID, collectionID, attr,
		schema.Attribute{Key: attr.Key, Type: "datetime", Required: attr.Required, Default: def})
}

func (s *Service) reject(ctx context.Context, op, databaseID, collectionID, key string, payload any, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Key: key, Payload: payload}); err != nil {
		return err
	}
	return invalid(op, "%s", message)
}

func (s *Service) addAttribute(ctx context.Context, op, databaseID, collectionID string, payload any, attr schema.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Key: attr.Key, Payload: payload}); err != nil {
		return err
	}
	coll, err := s.collection(op, databaseID, collectionID)
	if err != nil {
		return err
	}
	if attr.Required && attr.Default != nil {
		return invalid(op, "Cannot set default value for required attribute %q", attr.Key)
	}
	for _, a := range coll.attributes {
		if a.Key == attr.Key {
			return conflict(op, "Attribute %q already exists.", attr.Key)
		}
	}

	attr.Status = schema.StatusProcessing
	if s.polls == 0 {
		attr.Status = schema.StatusAvailable
	}
	coll.attributes = append(coll.attributes, &attribute{Attribute: attr, pollsLeft: s.polls})
	return nil
}

// GetAttribute reports the attribute's status and advances it towards
// available.
func (s *Service) GetAttribute(ctx context.Context, databaseID, collectionID, key string) (*schema.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "get_attribute", DatabaseID: databaseID, CollectionID: collectionID, Key: key}); err != nil {
		return nil, err
	}
	coll, err := s.collection("get_attribute", databaseID, collectionID)
	if err != nil {
		return nil, err
	}
	for _, a := range coll.attributes {
		if a.Key != key {
			continue
		}
		out := a.Attribute
		if a.Status == schema.StatusProcessing {
			a.pollsLeft--
			if a.pollsLeft <= 0 {
				a.Status = schema.StatusAvailable
			}
		}
		return &out, nil
	}
	return nil, notFound("get_attribute", "Attribute %q not found.", key)
}

// SetAttributeStatus forces an attribute's status.
func (s *Service) SetAttributeStatus(databaseID, collectionID, key string, status schema.AttributeStatus) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, err := s.collection("", databaseID, collectionID)
	if err != nil {
		return false
	}
	for _, a := range coll.attributes {
		if a.Key == key {
			a.Status = status
			return true
		}
	}
	return false
}

func (s *Service) CreateIndex(ctx context.Context, databaseID, collectionID string, index schema.IndexDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	const op = "create_index"
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Key: index.Key, Payload: index}); err != nil {
		return err
	}
	coll, err := s.collection(op, databaseID, collectionID)
	if err != nil {
		return err
	}
	if index.Type != "unique" && index.Type != "key" {
		return invalid(op, "Invalid index type %q", index.Type)
	}
	for _, idx := range coll.indexes {
		if idx.Key == index.Key {
			return conflict(op, "Index %q already exists.", index.Key)
		}
	}
	for _, name := range index.Attributes {
		var found *attribute
		for _, a := range coll.attributes {
			if a.Key == name {
				found = a
				break
			}
		}
		if found == nil {
			return invalid(op, "Unknown attribute: %s", name)
		}
		if found.Status != schema.StatusAvailable {
			return invalid(op, "Attribute not available: %s", name)
		}
	}
	coll.indexes = append(coll.indexes, schema.Index{
		Key:        index.Key,
		Type:       index.Type,
		Status:     string(schema.StatusAvailable),
		Attributes: append([]string(nil), index.Attributes...),
	})
	return nil
}

func (s *Service) GetBucket(ctx context.Context, id string) (*schema.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(ctx, Call{Op: "get_bucket", Key: id}); err != nil {
		return nil, err
	}
	b, ok := s.buckets[id]
	if !ok {
		return nil, notFound("get_bucket", "Storage bucket %q could not be found.", id)
	}
	return &b, nil
}

func (s *Service) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]any) (schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const op = "create_document"
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Key: documentID, Payload: data}); err != nil {
		return nil, err
	}
	coll, err := s.collection(op, databaseID, collectionID)
	if err != nil {
		return nil, err
	}
	if _, ok := coll.documents[documentID]; ok {
		return nil, conflict(op, "Document %q already exists.", documentID)
	}
	for k := range data {
		if !coll.hasAttribute(k) {
			return nil, invalid(op, "Invalid document structure: Unknown attribute: %q", k)
		}
	}
	for _, a := range coll.attributes {
		if _, ok := data[a.Key]; !ok && a.Required {
			return nil, invalid(op, "Invalid document structure: Missing required attribute %q", a.Key)
		}
	}

	doc := schema.Document{"$id": documentID, "$collectionId": collectionID, "$databaseId": databaseID}
	for k, v := range data {
		doc[k] = v
	}
	coll.documents[documentID] = doc
	coll.order = append(coll.order, documentID)
	return cloneDocument(doc), nil
}

func (c *collection) hasAttribute(key string) bool {
	for _, a := range c.attributes {
		if a.Key == key {
			return true
		}
	}
	return false
}

func (s *Service) GetDocument(ctx context.Context, databaseID, collectionID, documentID string) (schema.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const op = "get_document"
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Key: documentID}); err != nil {
		return nil, err
	}
	coll, err := s.collection(op, databaseID, collectionID)
	if err != nil {
		return nil, err
	}
	doc, ok := coll.documents[documentID]
	if !ok {
		return nil, notFound(op, "Document %q not found.", documentID)
	}
	return cloneDocument(doc), nil
}

// ListDocuments returns every document in insertion order. Queries are
// recorded but not evaluated.
func (s *Service) ListDocuments(ctx context.Context, databaseID, collectionID string, opts schema.ListOptions) (*schema.DocumentList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	const op = "list_documents"
	if err := s.record(ctx, Call{Op: op, DatabaseID: databaseID, CollectionID: collectionID, Payload: opts}); err != nil {
		return nil, err
	}
	coll, err := s.collection(op, databaseID, collectionID)
	if err != nil {
		return nil, err
	}
	list := &schema.DocumentList{Total: len(coll.order)}
	for _, id := range coll.order {
		list.Documents = append(list.Documents, cloneDocument(coll.documents[id]))
	}
	return list, nil
}

// Snapshot is the observable schema state, used to compare runs.
type Snapshot struct {
	Databases []DatabaseSnapshot
}

// DatabaseSnapshot describes one database.
type DatabaseSnapshot struct {
	ID          string
	Name        string
	Collections []CollectionSnapshot
}

// CollectionSnapshot describes one collection.
type CollectionSnapshot struct {
	ID          string
	Name        string
	Permissions []string
	Attributes  []schema.Attribute
	Indexes     []schema.Index
}

// Snapshot returns the current schema, sorted by id.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap Snapshot
	for _, db := range s.databases {
		ds := DatabaseSnapshot{ID: db.ID, Name: db.Name}
		for _, coll := range db.collections {
			cs := CollectionSnapshot{
				ID:          coll.ID,
				Name:        coll.Name,
				Permissions: append([]string(nil), coll.Permissions...),
				Indexes:     append([]schema.Index(nil), coll.indexes...),
			}
			for _, a := range coll.attributes {
				cs.Attributes = append(cs.Attributes, a.Attribute)
			}
			ds.Collections = append(ds.Collections, cs)
		}
		sort.Slice(ds.Collections, func(i, j int) bool { return ds.Collections[i].ID < ds.Collections[j].ID })
		snap.Databases = append(snap.Databases, ds)
	}
	sort.Slice(snap.Databases, func(i, j int) bool { return snap.Databases[i].ID < snap.Databases[j].ID })
	return snap
}

func cloneDocument(d schema.Document) schema.Document {
	out := make(schema.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
