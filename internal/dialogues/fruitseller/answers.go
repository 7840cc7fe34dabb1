package fruitseller

import (
	"fmt"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
)

const (
	dateFormat     = "2006/01/02"
	timeFormat     = "15:04"
	dateTimeFormat = "2006/01/02 15:04"
)

func fill(prompt string, pairs ...string) *domain.Answer {
	return domain.NewAnswer(strings.NewReplacer(pairs...).Replace(prompt))
}

func answerFruits(r *domain.Resource, _ *dsm.Manager, result domain.ParseResult) (*domain.Answer, error) {
	items := DescribeItems(r.ListItems())
	switch {
	case result.Flag(KeyFruitsEmpty):
		return domain.NewAnswer(r.Prompt("empty")), nil
	case result.Flag(KeyOptions):
		return domain.NewAnswer(r.Prompt("options")), nil
	}

	switch r.State {
	case domain.StateUnfulfilled:
		return domain.NewAnswer(r.Prompt("initial")), nil
	case domain.StatePartiallyFulfilled:
		a := fill(r.Prompt("repeat"), "{list_items}", items)
		if result.Has(KeyRemoved) && !result.Flag(KeyRemoved) {
			a = domain.NewAnswer("I could not find that in your order. " + a.Display)
		}
		return a, nil
	case domain.StateFulfilled:
		return fill(r.Prompt("confirm"), "{list_items}", items), nil
	}
	return nil, nil
}

func answerDateTime(r *domain.Resource, m *dsm.Manager, result domain.ParseResult) (*domain.Answer, error) {
	if result.Has(KeyParseError) {
		return domain.NewAnswer(r.Prompt("invalid_time")), nil
	}
	date, _ := m.MustResource(Date).Date()
	clock, _ := m.MustResource(Time).Time()

	switch r.State {
	case domain.StateUnfulfilled:
		return domain.NewAnswer(r.Prompt("initial")), nil
	case domain.StatePartiallyFulfilled:
		if m.MustResource(Date).Is(domain.StateFulfilled) {
			return fill(r.Prompt("date_fulfilled"), "{date}", date.Format(dateFormat)), nil
		}
		return fill(r.Prompt("time_fulfilled"), "{time}", clock.Format(timeFormat)), nil
	case domain.StateFulfilled:
		return fill(r.Prompt("confirm"), "{date_time}", deliveryTime(m)), nil
	}
	return nil, nil
}

func answerFinal(_ *domain.Resource, m *dsm.Manager, _ domain.ParseResult) (*domain.Answer, error) {
	final := m.Final()
	if final.Is(domain.StateCancelled) {
		return domain.NewAnswer(final.Prompt("cancelled")), nil
	}
	if err := m.SetState(final.Name, domain.StateConfirmed); err != nil {
		return nil, err
	}
	return fill(final.Prompt("final"),
		"{fruits}", DescribeItems(m.MustResource(Fruits).ListItems()),
		"{date_time}", deliveryTime(m),
	), nil
}

func deliveryTime(m *dsm.Manager) string {
	date, _ := m.MustResource(Date).Date()
	clock, _ := m.MustResource(Time).Time()
	return domain.CombineDateTime(date, clock).Format(dateTimeFormat)
}

// DescribeItems renders an order as "2 apples and 1 banana".
func DescribeItems(items []domain.ListItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		name := item.Name
		if item.Quantity != 1 {
			name += "s"
		}
		parts = append(parts, fmt.Sprintf("%d %s", item.Quantity, name))
	}
	switch len(parts) {
	case 0:
		return "nothing"
	case 1:
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}
