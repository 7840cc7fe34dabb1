package schema

import (
	"fmt"
	"reflect"
	"time"

	"github.com/aretw0/parley/pkg/domain"
)

// Type defines the contract for payload validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "date").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType validates numeric values. Integers and floats are both
// accepted since JSON round-trips turn every number into float64.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// LayoutType validates strings that parse with a time layout.
type LayoutType struct {
	name   string
	layout string
}

func (t *LayoutType) Name() string { return t.name }

func (t *LayoutType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected %s string, got %T", t.name, value)
	}
	if _, err := time.Parse(t.layout, s); err != nil {
		return fmt.Errorf("expected %s in layout %q, got %q", t.name, t.layout, s)
	}
	return nil
}

// ListType validates list payloads: named items with whole, non-negative
// quantities. Both []domain.ListItem and its generic JSON form are accepted.
type ListType struct{}

func (t *ListType) Name() string { return "list" }

func (t *ListType) Validate(value any) error {
	if items, ok := value.([]domain.ListItem); ok {
		for i, item := range items {
			if err := checkItem(item.Name, float64(item.Quantity)); err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
		}
		return nil
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected list, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		m, ok := rv.Index(i).Interface().(map[string]any)
		if !ok {
			return fmt.Errorf("item %d: expected object, got %T", i, rv.Index(i).Interface())
		}
		name, _ := m["name"].(string)
		qty, ok := m["quantity"].(float64)
		if !ok {
			return fmt.Errorf("item %d: quantity must be a number", i)
		}
		if err := checkItem(name, qty); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func checkItem(name string, qty float64) error {
	if name == "" {
		return fmt.Errorf("missing name")
	}
	if qty < 0 || qty != float64(int64(qty)) {
		return fmt.Errorf("quantity of %s must be a whole non-negative number, got %v", name, qty)
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a number type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Layout creates a validator for strings in the given time layout.
func Layout(name, layout string) Type { return &LayoutType{name: name, layout: layout} }

// List creates a list payload validator.
func List() Type { return &ListType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ForKind returns the payload type a kind promises, or nil when the kind
// accepts any payload.
func ForKind(k domain.Kind) Type {
	switch k {
	case domain.KindList:
		return List()
	case domain.KindYesNo:
		return Bool()
	case domain.KindNumber:
		return Number()
	case domain.KindDate:
		return Layout("date", domain.DateLayout)
	case domain.KindTime:
		return Layout("time", domain.TimeLayout)
	case domain.KindDatetime:
		return Layout("datetime", domain.DatetimeLayout)
	default:
		return nil
	}
}
