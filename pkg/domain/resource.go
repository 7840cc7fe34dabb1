package domain

import (
	"maps"
	"slices"
)

// Resource is one typed piece of information a dialogue must collect.
//
// Resources form a dependency DAG through Requires. The graph itself is
// derived and owned by the dialogue instance; a Resource only stores names.
type Resource struct {
	// Name is unique within a dialogue instance.
	Name string `json:"name" yaml:"name" mapstructure:"name" validate:"required"`

	Kind Kind `json:"kind" yaml:"kind" mapstructure:"kind"`

	State ResourceState `json:"state" yaml:"state,omitempty" mapstructure:"-"`

	// Data is the kind-specific payload. See payload.go for typed accessors.
	Data any `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"-"`

	// Requires lists the resources this one depends on, in declaration order.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty" mapstructure:"requires" validate:"dive,required"`

	OrderIndex int `json:"order_index" yaml:"order_index,omitempty" mapstructure:"order_index" validate:"gte=0"`

	// CascadeState makes a downgrade of this resource invalidate every ancestor.
	CascadeState bool `json:"cascade_state,omitempty" yaml:"cascade_state,omitempty" mapstructure:"cascade_state"`

	// PreferOverWrapper stops the resolver from folding this resource into its wrapper parent.
	PreferOverWrapper bool `json:"prefer_over_wrapper,omitempty" yaml:"prefer_over_wrapper,omitempty" mapstructure:"prefer_over_wrapper"`

	// Prompts holds prompt templates consumed by answering functions.
	Prompts map[string]string `json:"prompts,omitempty" yaml:"prompts,omitempty" mapstructure:"prompts"`
}

// Is reports whether the resource currently holds the given state.
func (r *Resource) Is(s ResourceState) bool { return r.State == s }

// Resolved reports whether the resolver treats this resource as done.
func (r *Resource) Resolved() bool {
	return r.State == StateConfirmed || r.State == StateSkipped
}

// Prompt returns the named prompt template or an empty string.
func (r *Resource) Prompt(key string) string {
	if r.Prompts == nil {
		return ""
	}
	return r.Prompts[key]
}

// Clone returns a deep copy of the resource. Data is copied through its
// JSON-stable form so that slices and maps are never shared between copies.
func (r *Resource) Clone() *Resource {
	if r == nil {
		return nil
	}
	c := *r
	c.Requires = slices.Clone(r.Requires)
	c.Prompts = maps.Clone(r.Prompts)
	c.Data = cloneData(r.Data)
	return &c
}

func cloneData(v any) any {
	switch d := v.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]any, len(d))
		for k, val := range d {
			out[k] = cloneData(val)
		}
		return out
	case []any:
		out := make([]any, len(d))
		for i, val := range d {
			out[i] = cloneData(val)
		}
		return out
	case []ListItem:
		return slices.Clone(d)
	case []string:
		return slices.Clone(d)
	default:
		return d
	}
}
