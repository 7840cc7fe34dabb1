package dsm_test

import (
	"testing"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
	"github.com/stretchr/testify/require"
)

// deliveryTemplate is Final <- Group(wrapper) <- {Date, Time}.
func deliveryTemplate() *domain.Template {
	return &domain.Template{
		Name: "delivery",
		Resources: []*domain.Resource{
			{Name: "Date", Kind: domain.KindDate, PreferOverWrapper: true, OrderIndex: 1},
			{Name: "Time", Kind: domain.KindTime, PreferOverWrapper: true, OrderIndex: 2},
			{Name: "Group", Kind: domain.KindWrapper, Requires: []string{"Date", "Time"}, OrderIndex: 1},
			{Name: "Final", Kind: domain.KindFinal, Requires: []string{"Group"}, OrderIndex: 3},
		},
	}
}

// orderTemplate has a dynamic Drink that itself requires a dynamic Size.
func orderTemplate() *domain.Template {
	return &domain.Template{
		Name: "order",
		Resources: []*domain.Resource{
			{Name: "Drink_existing", OrderIndex: 0},
			{Name: "Order", Kind: domain.KindList, Requires: []string{"Drink_existing"}, OrderIndex: 1},
			{Name: "Final", Kind: domain.KindFinal, Requires: []string{"Order"}, OrderIndex: 2},
		},
		DynamicResources: []*domain.Resource{
			{Name: "Drink", Requires: []string{"Size"}, Prompts: map[string]string{"initial": "Which drink?"}},
			{Name: "Size", Kind: domain.KindNumber},
		},
	}
}

func newManager(t *testing.T, tmpl *domain.Template, opts ...dsm.Option) *dsm.Manager {
	t.Helper()
	m, err := dsm.New(tmpl, opts...)
	require.NoError(t, err)
	return m
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func dsmHooks(cascades *[]*domain.CascadeEvent) dsm.Option {
	return dsm.WithHooks(domain.LifecycleHooks{
		OnCascade: func(e *domain.CascadeEvent) { *cascades = append(*cascades, e) },
	})
}
