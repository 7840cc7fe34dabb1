// Package fruitseller is a small ordering dialogue: the user picks fruit,
// a delivery date and a delivery time, and confirms each step.
package fruitseller

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/template"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
)

// Name is the dialogue and template name.
const Name = "fruitseller"

// Resource names declared by the template.
const (
	Fruits   = "Fruits"
	Date     = "Date"
	Time     = "Time"
	DateTime = "DateTime"
)

//go:embed fruitseller.yaml
var templateSource []byte

var errInvalidTime = errors.New("invalid time of day")

// Dialogue implements the fruit seller parse layer and answers.
type Dialogue struct {
	template *domain.Template
	clock    func() time.Time
	logger   *slog.Logger
}

// Option configures a Dialogue.
type Option func(*Dialogue)

// WithClock sets the clock used to read relative dates.
func WithClock(clock func() time.Time) Option {
	return func(d *Dialogue) {
		if clock != nil {
			d.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dialogue) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New returns the dialogue with its embedded template.
func New(opts ...Option) (*Dialogue, error) {
	tmpl, err := template.Parse(templateSource, template.FormatYAML, Name)
	if err != nil {
		return nil, fmt.Errorf("fruitseller template: %w", err)
	}
	d := &Dialogue{
		template: tmpl,
		clock:    time.Now,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns the dialogue name.
func (d *Dialogue) Name() string { return Name }

// Template returns the embedded template.
func (d *Dialogue) Template() *domain.Template { return d.template }

// Answers returns the answering functions.
func (d *Dialogue) Answers() dsm.Registry {
	return dsm.Registry{
		Fruits:                   answerFruits,
		DateTime:                 answerDateTime,
		domain.FinalResourceName: answerFinal,
	}
}

// Handle reads the utterance and applies it to the dialogue.
func (d *Dialogue) Handle(_ context.Context, m *dsm.Manager, utterance string) (domain.ParseResult, error) {
	q, ok, perr := ParseQuery(utterance, d.clock())
	if !ok {
		return nil, nil
	}
	result := domain.ParseResult{KeyIntent: string(q.Intent)}
	if errors.Is(perr, errInvalidTime) {
		result[KeyParseError] = perr.Error()
	} else if perr != nil {
		return nil, perr
	}

	if q.Intent == IntentStart {
		if m.Active() && !m.TimedOut() {
			return result, nil
		}
		return result, m.Start()
	}
	if !m.Active() || m.TimedOut() {
		return result, nil
	}
	d.logger.Debug("query parsed", "intent", q.Intent, "fruits", len(q.Fruits))

	var err error
	switch q.Intent {
	case IntentAdd:
		err = addFruits(m, q.Fruits)
	case IntentRemove:
		err = removeFruits(m, q.Fruits, result)
	case IntentChange:
		if err = removeFruits(m, q.Replace, result); err == nil {
			delete(result, KeyFruitsEmpty)
			err = addFruits(m, q.Fruits)
		}
	case IntentOptions:
		result[KeyOptions] = true
	case IntentYes:
		err = confirm(m)
	case IntentNo:
		err = deny(m)
	case IntentCancel:
		if err = m.SetState(domain.FinalResourceName, domain.StateCancelled); err == nil {
			m.Finish()
		}
	case IntentDate:
		if result.Has(KeyParseError) {
			break
		}
		err = setDelivery(m, q.Date, q.Time)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
