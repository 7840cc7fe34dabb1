package fruitseller

import (
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
)

// addFruits merges quantities by name and reopens the order.
func addFruits(m *dsm.Manager, items []domain.ListItem) error {
	fruits := m.MustResource(Fruits)
	current := fruits.ListItems()
	for _, item := range items {
		merged := false
		for i := range current {
			if current[i].Name == item.Name {
				current[i].Quantity += item.Quantity
				merged = true
				break
			}
		}
		if !merged {
			current = append(current, item)
		}
	}
	fruits.SetListItems(current)
	return m.SetState(Fruits, domain.StatePartiallyFulfilled)
}

// removeFruits drops every entry matching a named fruit, whatever the
// quantity asked for.
func removeFruits(m *dsm.Manager, items []domain.ListItem, result domain.ParseResult) error {
	fruits := m.MustResource(Fruits)
	drop := make(map[string]bool, len(items))
	for _, item := range items {
		drop[item.Name] = true
	}

	var kept []domain.ListItem
	for _, item := range fruits.ListItems() {
		if !drop[item.Name] {
			kept = append(kept, item)
		}
	}
	result[KeyRemoved] = len(kept) < len(fruits.ListItems())
	fruits.SetListItems(kept)

	if len(kept) == 0 {
		result[KeyFruitsEmpty] = true
		return m.SetState(Fruits, domain.StateUnfulfilled)
	}
	return m.SetState(Fruits, domain.StatePartiallyFulfilled)
}

// confirm accepts the fulfilled resource in focus. Confirming a wrapper
// confirms its parts too.
func confirm(m *dsm.Manager) error {
	current := m.CurrentResource()
	if current.Name != Fruits && current.Name != DateTime {
		return nil
	}
	if !current.Is(domain.StateFulfilled) {
		return nil
	}
	if err := m.SetState(current.Name, domain.StateConfirmed); err != nil {
		return err
	}
	if current.Kind.IsWrapper() {
		for _, name := range current.Requires {
			if err := m.ForceState(name, domain.StateConfirmed); err != nil {
				return err
			}
		}
	}
	return nil
}

// deny toggles the fruit list between "still adding" and "ready to confirm".
func deny(m *dsm.Manager) error {
	fruits := m.MustResource(Fruits)
	if m.CurrentResource().Name != Fruits || fruits.Is(domain.StateConfirmed) {
		return nil
	}
	switch fruits.State {
	case domain.StatePartiallyFulfilled:
		return m.ForceState(Fruits, domain.StateFulfilled)
	case domain.StateFulfilled:
		return m.ForceState(Fruits, domain.StatePartiallyFulfilled)
	}
	return nil
}

// setDelivery records the date and time once the fruit is settled. The
// wrapper is fulfilled when both parts are.
func setDelivery(m *dsm.Manager, date, clock *time.Time) error {
	if m.CurrentResource().Name != DateTime || !m.MustResource(Fruits).Is(domain.StateConfirmed) {
		return nil
	}
	if date != nil {
		m.MustResource(Date).SetDate(*date)
		if err := m.SetState(Date, domain.StateFulfilled); err != nil {
			return err
		}
	}
	if clock != nil {
		m.MustResource(Time).SetTime(*clock)
		if err := m.SetState(Time, domain.StateFulfilled); err != nil {
			return err
		}
	}

	state := domain.StatePartiallyFulfilled
	if m.MustResource(Date).Is(domain.StateFulfilled) && m.MustResource(Time).Is(domain.StateFulfilled) {
		state = domain.StateFulfilled
	}
	return m.ForceState(DateTime, state)
}
