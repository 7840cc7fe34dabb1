package domain

import (
	"time"
)

// Template is the declarative definition of a dialogue.
type Template struct {
	Name string `json:"name" yaml:"name" validate:"required"`

	// Resources are the static resources, in declaration order.
	Resources []*Resource `json:"resources" yaml:"resources" validate:"required,min=1,dive"`

	// DynamicResources can be cloned at runtime with AddDynamicResource.
	DynamicResources []*Resource `json:"dynamic_resources,omitempty" yaml:"dynamic_resources,omitempty" validate:"dive"`

	// ExpirationSeconds overrides DefaultExpiration when positive.
	ExpirationSeconds int `json:"expiration_seconds,omitempty" yaml:"expiration_seconds,omitempty" validate:"gte=0"`
}

// Expiration returns the effective idle timeout of the dialogue.
func (t *Template) Expiration() time.Duration {
	if t.ExpirationSeconds > 0 {
		return time.Duration(t.ExpirationSeconds) * time.Second
	}
	return DefaultExpiration
}

// Instantiate returns fresh copies of the static resources.
// Every copy starts unfulfilled with no payload.
func (t *Template) Instantiate() []*Resource {
	out := make([]*Resource, 0, len(t.Resources))
	for _, r := range t.Resources {
		out = append(out, Fresh(r))
	}
	return out
}

// Dynamic looks up a dynamic resource template by name.
func (t *Template) Dynamic(name string) (*Resource, bool) {
	for _, r := range t.DynamicResources {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

// Fresh returns an unfulfilled copy of a declared resource.
func Fresh(r *Resource) *Resource {
	c := r.Clone()
	c.State = StateUnfulfilled
	c.Data = nil
	if c.Kind == "" {
		c.Kind = KindPlain
	}
	return c
}
