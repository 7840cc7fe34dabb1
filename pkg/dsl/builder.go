package dsl

import (
	"fmt"
	"time"

	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
)

// Builder manages the template construction.
type Builder struct {
	name       string
	expiration time.Duration
	static     []*ResourceBuilder
	dynamic    []*ResourceBuilder
	index      map[string]*ResourceBuilder
}

// New creates a builder for the named dialogue.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		index: make(map[string]*ResourceBuilder),
	}
}

// Expiration overrides the idle timeout of the dialogue.
func (b *Builder) Expiration(d time.Duration) *Builder {
	b.expiration = d
	return b
}

// Add declares a static resource.
// If the resource already exists, it returns the existing builder.
func (b *Builder) Add(name string) *ResourceBuilder {
	return b.declare(name, &b.static)
}

// Dynamic declares a resource that can only be instantiated at runtime
// through AddDynamicResource.
func (b *Builder) Dynamic(name string) *ResourceBuilder {
	return b.declare(name, &b.dynamic)
}

func (b *Builder) declare(name string, into *[]*ResourceBuilder) *ResourceBuilder {
	if rb, ok := b.index[name]; ok {
		return rb
	}
	rb := &ResourceBuilder{resource: &domain.Resource{Name: name}}
	b.index[name] = rb
	*into = append(*into, rb)
	return rb
}

// Build assembles the template and checks that it forms a valid graph.
func (b *Builder) Build() (*domain.Template, error) {
	tmpl := &domain.Template{Name: b.name}
	if b.expiration > 0 {
		tmpl.ExpirationSeconds = int(b.expiration / time.Second)
	}
	for _, rb := range b.static {
		tmpl.Resources = append(tmpl.Resources, rb.Build())
	}
	for _, rb := range b.dynamic {
		tmpl.DynamicResources = append(tmpl.DynamicResources, rb.Build())
	}

	if _, err := dsm.New(tmpl); err != nil {
		return nil, fmt.Errorf("invalid template %q: %w", b.name, err)
	}
	return tmpl, nil
}

// Loader builds the template and serves it from memory.
func (b *Builder) Loader() (*memory.Loader, error) {
	tmpl, err := b.Build()
	if err != nil {
		return nil, err
	}
	loader, err := memory.NewLoader(tmpl)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
