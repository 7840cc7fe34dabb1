package schema

import (
	"sort"

	"github.com/aretw0/parley/pkg/domain"
)

// Check validates a payload against a kind. A nil payload is always valid:
// it means the resource holds nothing yet.
func Check(kind domain.Kind, data any) error {
	if data == nil {
		return nil
	}
	t := ForKind(kind)
	if t == nil {
		return nil
	}
	if err := t.Validate(data); err != nil {
		return &ValidationError{Kind: kind, Reason: err.Error(), Value: data}
	}
	return nil
}

// ValidateResource checks the payload of a single resource.
func ValidateResource(r *domain.Resource) error {
	if err := Check(r.Kind, r.Data); err != nil {
		verr := err.(*ValidationError)
		verr.Resource = r.Name
		return verr
	}
	return nil
}

// ValidateSnapshot checks every payload of a snapshot.
// Returns an AggregateError listing each failure in resource name order.
func ValidateSnapshot(snap *domain.Snapshot) error {
	if snap == nil {
		return nil
	}
	names := make([]string, 0, len(snap.Resources))
	for name := range snap.Resources {
		names = append(names, name)
	}
	sort.Strings(names)

	var errs []error
	for _, name := range names {
		r := snap.Resources[name]
		if r == nil {
			continue
		}
		if err := ValidateResource(r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
