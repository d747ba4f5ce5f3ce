package catalog

import (
	"fmt"
	"math"
	"time"
)

// StringDefault returns the default of a string attribute, or nil when unset.
func (a *Attribute) StringDefault() (*string, error) {
	if a.Default == nil {
		return nil, nil
	}
	s, ok := a.Default.(string)
	if !ok {
		return nil, fmt.Errorf("default %v is not a string", a.Default)
	}
	return &s, nil
}

// IntegerDefault returns the default of an integer attribute, or nil when unset.
func (a *Attribute) IntegerDefault() (*int64, error) {
	if a.Default == nil {
		return nil, nil
	}
	n, err := toInt64(a.Default)
	if err != nil {
		return nil, fmt.Errorf("default %w", err)
	}
	return &n, nil
}

// DoubleDefault returns the default of a double attribute, or nil when unset.
func (a *Attribute) DoubleDefault() (*float64, error) {
	if a.Default == nil {
		return nil, nil
	}
	f, err := toFloat64(a.Default)
	if err != nil {
		return nil, fmt.Errorf("default %w", err)
	}
	return &f, nil
}

// BooleanDefault returns the default of a boolean attribute, or nil when unset.
func (a *Attribute) BooleanDefault() (*bool, error) {
	if a.Default == nil {
		return nil, nil
	}
	b, ok := a.Default.(bool)
	if !ok {
		return nil, fmt.Errorf("default %v is not a boolean", a.Default)
	}
	return &b, nil
}

// DatetimeDefault returns the default of a datetime attribute as an RFC 3339
// string, or nil when unset.
func (a *Attribute) DatetimeDefault() (*string, error) {
	if a.Default == nil {
		return nil, nil
	}
	switch v := a.Default.(type) {
	case string:
		if _, err := time.Parse(time.RFC3339, v); err != nil {
			return nil, fmt.Errorf("default %q is not an RFC 3339 datetime", v)
		}
		return &v, nil
	case time.Time:
		s := v.UTC().Format(time.RFC3339)
		return &s, nil
	default:
		return nil, fmt.Errorf("default %v is not a datetime", a.Default)
	}
}

// IntegerBounds returns Min and Max as integers.
func (a *Attribute) IntegerBounds() (min, max *int64, err error) {
	if a.Min != nil {
		n, err := toInt64(*a.Min)
		if err != nil {
			return nil, nil, fmt.Errorf("min %w", err)
		}
		min = &n
	}
	if a.Max != nil {
		n, err := toInt64(*a.Max)
		if err != nil {
			return nil, nil, fmt.Errorf("max %w", err)
		}
		max = &n
	}
	return min, max, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("%v is not an integer", n)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("%v overflows int64", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("%v is not an integer", v)
	}
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("%v is not a number", v)
	}
}
