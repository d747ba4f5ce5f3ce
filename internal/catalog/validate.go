package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidCatalog is wrapped by every catalog validation failure.
var ErrInvalidCatalog = errors.New("invalid catalog")

// identifierPattern matches remote collection, attribute and index keys.
var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]{0,35}$`)

// validate is the singleton validator instance for catalog structs.
var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := validate.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// Problem is a single catalog defect located by its path,
// e.g. collections[2].indexes[0].attributes[1].
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationErrors lists every problem found in a catalog.
type ValidationErrors struct {
	Problems []Problem `json:"problems"`
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Problems))
	for _, p := range v.Problems {
		msgs = append(msgs, fmt.Sprintf("%s: %s", p.Path, p.Message))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidCatalog, strings.Join(msgs, "; "))
}

func (v *ValidationErrors) Unwrap() error {
	return ErrInvalidCatalog
}

func (v *ValidationErrors) add(path, format string, args ...any) {
	v.Problems = append(v.Problems, Problem{Path: path, Message: fmt.Sprintf(format, args...)})
}

// Validate checks a catalog without touching the network: struct constraints,
// unique ids and keys, index references and attribute defaults.
func Validate(c *Catalog) error {
	if c == nil {
		return fmt.Errorf("%w: catalog is nil", ErrInvalidCatalog)
	}

	problems := &ValidationErrors{}

	if err := validate.Struct(c); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
		}
		for _, fe := range ve {
			problems.add(fieldPath(fe), "%s", translateValidationError(fe))
		}
	}

	seenCollections := make(map[string]int)
	for ci := range c.Collections {
		coll := &c.Collections[ci]
		cp := fmt.Sprintf("collections[%d]", ci)

		if prev, ok := seenCollections[coll.ID]; ok && coll.ID != "" {
			problems.add(cp+".id", "duplicate collection id %q (also collections[%d])", coll.ID, prev)
		} else {
			seenCollections[coll.ID] = ci
		}

		seenAttrs := make(map[string]bool)
		for ai := range coll.Attributes {
			attr := &coll.Attributes[ai]
			ap := fmt.Sprintf("%s.attributes[%d]", cp, ai)
			if seenAttrs[attr.Key] && attr.Key != "" {
				problems.add(ap+".key", "duplicate attribute key %q", attr.Key)
			}
			seenAttrs[attr.Key] = true
			checkAttribute(problems, ap, attr)
		}

		seenIndexes := make(map[string]bool)
		for ii := range coll.Indexes {
			idx := &coll.Indexes[ii]
			ip := fmt.Sprintf("%s.indexes[%d]", cp, ii)
			if seenIndexes[idx.Key] && idx.Key != "" {
				problems.add(ip+".key", "duplicate index key %q", idx.Key)
			}
			seenIndexes[idx.Key] = true

			seenFields := make(map[string]bool)
			for k, name := range idx.Attributes {
				if name == "" {
					continue
				}
				if seenFields[name] {
					problems.add(fmt.Sprintf("%s.attributes[%d]", ip, k), "attribute %q listed twice", name)
				}
				seenFields[name] = true
				if _, ok := coll.Attribute(name); !ok {
					problems.add(fmt.Sprintf("%s.attributes[%d]", ip, k), "references unknown attribute %q", name)
				}
			}
		}
	}

	if len(problems.Problems) == 0 {
		return nil
	}
	return problems
}

func checkAttribute(problems *ValidationErrors, path string, attr *Attribute) {
	if !attr.Type.IsValid() {
		// Reported by the struct pass.
		return
	}

	numeric := attr.Type == TypeInteger || attr.Type == TypeDouble
	if !numeric && (attr.Min != nil || attr.Max != nil) {
		problems.add(path, "min/max only apply to integer and double attributes")
	}
	if attr.Min != nil && attr.Max != nil && *attr.Min > *attr.Max {
		problems.add(path, "min %v is greater than max %v", *attr.Min, *attr.Max)
	}
	if attr.Type == TypeInteger {
		if _, _, err := attr.IntegerBounds(); err != nil {
			problems.add(path, "%v", err)
		}
	}

	if attr.Default == nil {
		return
	}
	if attr.Required {
		problems.add(path+".default", "default is not allowed on a required attribute")
	}

	switch attr.Type {
	case TypeString:
		s, err := attr.StringDefault()
		if err != nil {
			problems.add(path+".default", "%v", err)
		} else if attr.Size > 0 && len(*s) > attr.Size {
			problems.add(path+".default", "default is longer than size %d", attr.Size)
		}
	case TypeInteger:
		n, err := attr.IntegerDefault()
		if err != nil {
			problems.add(path+".default", "%v", err)
		} else if !inRange(float64(*n), attr.Min, attr.Max) {
			problems.add(path+".default", "default %d is outside min/max", *n)
		}
	case TypeDouble:
		f, err := attr.DoubleDefault()
		if err != nil {
			problems.add(path+".default", "%v", err)
		} else if !inRange(*f, attr.Min, attr.Max) {
			problems.add(path+".default", "default %v is outside min/max", *f)
		}
	case TypeBoolean:
		if _, err := attr.BooleanDefault(); err != nil {
			problems.add(path+".default", "%v", err)
		}
	case TypeDatetime:
		if _, err := attr.DatetimeDefault(); err != nil {
			problems.add(path+".default", "%v", err)
		}
	}
}

func inRange(v float64, min, max *float64) bool {
	if min != nil && v < *min {
		return false
	}
	if max != nil && v > *max {
		return false
	}
	return true
}

// fieldPath turns a validator namespace (Catalog.collections[0].id) into a
// catalog path (collections[0].id).
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// translateValidationError converts a validator.FieldError to a readable message.
func translateValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for string attributes"
	case "identifier":
		return fmt.Sprintf("%q must be 1-36 characters of a-z, A-Z, 0-9, '.', '_' or '-' and not start with a symbol", fe.Value())
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("%q must be one of: %s", fe.Value(), fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
