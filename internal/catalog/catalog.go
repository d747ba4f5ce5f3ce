// Package catalog provides the declarative schema catalog: collections, typed
// attributes and indexes, loading from YAML and validation.
package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// AttributeType is the closed set of attribute kinds.
type AttributeType string

const (
	TypeString   AttributeType = "string"
	TypeInteger  AttributeType = "integer"
	TypeDouble   AttributeType = "double"
	TypeBoolean  AttributeType = "boolean"
	TypeDatetime AttributeType = "datetime"
)

// typeAliases maps alternative spellings onto the canonical type.
var typeAliases = map[AttributeType]AttributeType{
	"float": TypeDouble,
}

// IsValid reports whether t is one of the supported attribute kinds.
func (t AttributeType) IsValid() bool {
	switch t {
	case TypeString, TypeInteger, TypeDouble, TypeBoolean, TypeDatetime:
		return true
	default:
		return false
	}
}

// IndexType is the kind of an index.
type IndexType string

const (
	IndexUnique IndexType = "unique"
	IndexKey    IndexType = "key"
)

// Attribute describes one typed field of a collection.
type Attribute struct {
	Key      string        `yaml:"key" json:"key" validate:"required,identifier"`
	Type     AttributeType `yaml:"type" json:"type" validate:"required,oneof=string integer double boolean datetime"`
	Size     int           `yaml:"size,omitempty" json:"size,omitempty" validate:"required_if=Type string,gte=0"`
	Required bool          `yaml:"required" json:"required"`
	Default  any           `yaml:"default,omitempty" json:"default,omitempty"`
	Min      *float64      `yaml:"min,omitempty" json:"min,omitempty"`
	Max      *float64      `yaml:"max,omitempty" json:"max,omitempty"`
}

// Index describes a unique or non-unique index over attributes.
type Index struct {
	Key        string    `yaml:"key" json:"key" validate:"required,identifier"`
	Type       IndexType `yaml:"type" json:"type" validate:"required,oneof=unique key"`
	Attributes []string  `yaml:"attributes" json:"attributes" validate:"required,min=1,dive,required"`
}

// Collection describes one collection with its attributes and indexes.
// Order of Attributes and Indexes is the order of creation calls.
type Collection struct {
	ID          string      `yaml:"id" json:"id" validate:"required,identifier"`
	Name        string      `yaml:"name" json:"name" validate:"required,max=128"`
	Permissions []string    `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Attributes  []Attribute `yaml:"attributes" json:"attributes" validate:"dive"`
	Indexes     []Index     `yaml:"indexes" json:"indexes" validate:"dive"`
}

// Attribute returns the attribute with the given key.
func (c *Collection) Attribute(key string) (*Attribute, bool) {
	for i := range c.Attributes {
		if c.Attributes[i].Key == key {
			return &c.Attributes[i], true
		}
	}
	return nil, false
}

// Catalog is the full schema description.
type Catalog struct {
	Name        string       `yaml:"name" json:"name"`
	Permissions []string     `yaml:"permissions,omitempty" json:"permissions,omitempty"`
	Collections []Collection `yaml:"collections" json:"collections" validate:"required,min=1,dive"`
}

// DefaultPermissions is applied to collections when neither the collection
// nor the catalog declares permissions.
var DefaultPermissions = []string{
	`read("any")`,
	`create("users")`,
	`update("users")`,
	`delete("users")`,
	`write("users")`,
}

// PermissionsFor returns the effective permission list for a collection.
func (c *Catalog) PermissionsFor(coll *Collection) []string {
	if len(coll.Permissions) > 0 {
		return coll.Permissions
	}
	if len(c.Permissions) > 0 {
		return c.Permissions
	}
	return DefaultPermissions
}

// Collection returns the collection with the given id.
func (c *Catalog) Collection(id string) (*Collection, bool) {
	for i := range c.Collections {
		if c.Collections[i].ID == id {
			return &c.Collections[i], true
		}
	}
	return nil, false
}

// AttributeCount returns the number of attributes across all collections.
func (c *Catalog) AttributeCount() int {
	n := 0
	for i := range c.Collections {
		n += len(c.Collections[i].Attributes)
	}
	return n
}

// IndexCount returns the number of indexes across all collections.
func (c *Catalog) IndexCount() int {
	n := 0
	for i := range c.Collections {
		n += len(c.Collections[i].Indexes)
	}
	return n
}

// Built-in catalog names.
const (
	Minimal = "minimal"
	Full    = "full"
)

//go:embed catalogs/*.yml
var builtin embed.FS

var ErrUnknownCatalog = errors.New("unknown catalog")

// Builtin returns the names of the embedded catalogs.
func Builtin() []string {
	entries, err := builtin.ReadDir("catalogs")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yml"))
	}
	sort.Strings(names)
	return names
}

// IsBuiltin reports whether source names an embedded catalog.
func IsBuiltin(source string) bool {
	_, err := builtin.ReadFile("catalogs/" + source + ".yml")
	return err == nil && !strings.ContainsAny(source, "/\\")
}

// Load resolves source as a built-in catalog name first, then as a file path.
func Load(source string) (*Catalog, error) {
	if source == "" {
		return nil, fmt.Errorf("%w: empty source", ErrUnknownCatalog)
	}
	if IsBuiltin(source) {
		data, err := builtin.ReadFile("catalogs/" + source + ".yml")
		if err != nil {
			return nil, err
		}
		return LoadFromBytes(data)
	}
	return LoadFromFile(source)
}

// LoadFromFile loads a catalog from a YAML file.
func LoadFromFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCatalog, path)
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses and validates a catalog from YAML bytes.
func LoadFromBytes(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	c.normalize()

	if err := Validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) normalize() {
	for i := range c.Collections {
		attrs := c.Collections[i].Attributes
		for j := range attrs {
			t := AttributeType(strings.ToLower(string(attrs[j].Type)))
			if canonical, ok := typeAliases[t]; ok {
				t = canonical
			}
			attrs[j].Type = t
		}
	}
}
