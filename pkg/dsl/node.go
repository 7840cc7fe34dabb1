package dsl

import "github.com/aretw0/parley/pkg/domain"

// ResourceBuilder provides a fluent API for configuring a resource.
type ResourceBuilder struct {
	resource *domain.Resource
}

// Kind sets the kind explicitly.
func (r *ResourceBuilder) Kind(k domain.Kind) *ResourceBuilder {
	r.resource.Kind = k
	return r
}

// List marks the resource as holding a list of named quantities.
func (r *ResourceBuilder) List() *ResourceBuilder { return r.Kind(domain.KindList) }

// YesNo marks the resource as holding a boolean.
func (r *ResourceBuilder) YesNo() *ResourceBuilder { return r.Kind(domain.KindYesNo) }

// Number marks the resource as holding a number.
func (r *ResourceBuilder) Number() *ResourceBuilder { return r.Kind(domain.KindNumber) }

// Date marks the resource as holding a calendar date.
func (r *ResourceBuilder) Date() *ResourceBuilder { return r.Kind(domain.KindDate) }

// Time marks the resource as holding a time of day.
func (r *ResourceBuilder) Time() *ResourceBuilder { return r.Kind(domain.KindTime) }

// Datetime marks the resource as holding a date and time.
func (r *ResourceBuilder) Datetime() *ResourceBuilder { return r.Kind(domain.KindDatetime) }

// Wrapper turns the resource into a wrapper over children.
func (r *ResourceBuilder) Wrapper(children ...string) *ResourceBuilder {
	return r.Kind(domain.KindWrapper).Requires(children...)
}

// Or turns the resource into a mutually exclusive group over members.
func (r *ResourceBuilder) Or(members ...string) *ResourceBuilder {
	return r.Kind(domain.KindOr).Requires(members...)
}

// Final turns the resource into the root of the dialogue.
func (r *ResourceBuilder) Final(requires ...string) *ResourceBuilder {
	return r.Kind(domain.KindFinal).Requires(requires...)
}

// Requires appends required resources, keeping declaration order.
func (r *ResourceBuilder) Requires(names ...string) *ResourceBuilder {
	r.resource.Requires = append(r.resource.Requires, names...)
	return r
}

// Prompt sets a named prompt text.
func (r *ResourceBuilder) Prompt(key, text string) *ResourceBuilder {
	if r.resource.Prompts == nil {
		r.resource.Prompts = make(map[string]string)
	}
	r.resource.Prompts[key] = text
	return r
}

// Cascade makes downgrades of this resource unconfirm its ancestors.
func (r *ResourceBuilder) Cascade() *ResourceBuilder {
	r.resource.CascadeState = true
	return r
}

// PreferOverWrapper keeps the focus on this resource instead of its wrapper.
func (r *ResourceBuilder) PreferOverWrapper() *ResourceBuilder {
	r.resource.PreferOverWrapper = true
	return r
}

// Order sets the order index.
func (r *ResourceBuilder) Order(i int) *ResourceBuilder {
	r.resource.OrderIndex = i
	return r
}

// Build returns a copy of the underlying resource.
func (r *ResourceBuilder) Build() *domain.Resource {
	return r.resource.Clone()
}
