package parley

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/adapters/memory"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/aretw0/parley/pkg/runner"
	"github.com/aretw0/parley/pkg/session"
)

// Dialogue is the content module of one conversation: its parse layer and
// its answering functions.
type Dialogue interface {
	// Name matches the template of the dialogue.
	Name() string

	// Answers returns the answering functions keyed by resource base name.
	Answers() dsm.Registry

	// Handle interprets an utterance and mutates the dialogue through the
	// manager. A nil result means the utterance was not for this dialogue.
	Handle(ctx context.Context, m *dsm.Manager, utterance string) (domain.ParseResult, error)
}

// TemplateProvider is implemented by dialogues that ship their own template.
// It is used when the configured loader does not know the dialogue.
type TemplateProvider interface {
	Template() *domain.Template
}

// Engine runs dialogue turns against a snapshot store.
type Engine struct {
	templates ports.TemplateLoader
	store     ports.SnapshotStore
	locker    ports.DistributedLocker
	sessions  *session.Manager
	dialogues map[string]Dialogue

	expiration time.Duration
	clock      func() time.Time
	hooks      domain.LifecycleHooks
	logger     *slog.Logger
}

var _ ports.Engine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTemplates sets the template source.
func WithTemplates(loader ports.TemplateLoader) Option {
	return func(e *Engine) {
		e.templates = loader
	}
}

// WithStore sets where snapshots are kept. Defaults to memory.
func WithStore(store ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// WithLocker serializes turns of a client across replicas.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = locker
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithDialogue registers a dialogue. Later registrations replace earlier
// ones with the same name.
func WithDialogue(d Dialogue) Option {
	return func(e *Engine) {
		e.dialogues[d.Name()] = d
	}
}

// WithExpiration overrides the idle timeout of every template.
func WithExpiration(d time.Duration) Option {
	return func(e *Engine) {
		e.expiration = d
	}
}

// New initializes an engine.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		dialogues: make(map[string]Dialogue),
		clock:     time.Now,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if len(e.dialogues) == 0 {
		return nil, errors.New("at least one dialogue must be registered")
	}
	if e.store == nil {
		e.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(e.logger)}
	if e.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(e.locker))
	}
	e.sessions = session.NewManager(e.store, sessionOpts...)
	return e, nil
}

// Dialogues returns the registered dialogue names.
func (e *Engine) Dialogues() []string {
	names := make([]string, 0, len(e.dialogues))
	for name := range e.dialogues {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sessions exposes the session manager, mainly for listing stored dialogues.
func (e *Engine) Sessions() *session.Manager { return e.sessions }

// Process runs one full turn of a dialogue for a client under the client's
// lock: hydrate, parse, answer, persist.
//
// Errors are configuration or infrastructure failures and abort the turn
// without persisting anything. An utterance nobody understood is not an
// error: the reply carries domain.NotUnderstood and state is still saved.
func (e *Engine) Process(ctx context.Context, clientID, dialogue, utterance string) (*domain.Reply, error) {
	d, ok := e.dialogues[dialogue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
	}
	logger := e.logger.With("dialogue", dialogue, "client_id", clientID)

	started := e.clock()
	event := &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: started, Type: domain.EventTurnStart, Dialogue: dialogue},
		ClientID:  clientID,
	}
	if e.hooks.OnTurnStart != nil {
		e.hooks.OnTurnStart(ctx, event)
	}

	var reply *domain.Reply
	err := e.sessions.WithLock(ctx, clientID, func(ctx context.Context) error {
		var err error
		reply, err = e.turn(ctx, d, clientID, utterance, logger)
		return err
	})

	end := &domain.TurnEvent{
		EventBase: domain.EventBase{Timestamp: e.clock(), Type: domain.EventTurnEnd, Dialogue: dialogue},
		ClientID:  clientID,
		Duration:  e.clock().Sub(started),
		Err:       err,
	}
	if reply != nil {
		end.Focus = reply.Focus
		end.Understood = reply.Understood
		end.Finished = reply.Finished
	}
	if e.hooks.OnTurnEnd != nil {
		e.hooks.OnTurnEnd(ctx, end)
	}

	if err != nil {
		logger.Error("turn failed", "err", err)
		return nil, err
	}
	return reply, nil
}

func (e *Engine) turn(ctx context.Context, d Dialogue, clientID, utterance string, logger *slog.Logger) (*domain.Reply, error) {
	text, err := runner.SanitizeInput(utterance)
	if err != nil {
		return nil, err
	}

	tmpl, err := e.template(ctx, d)
	if err != nil {
		return nil, err
	}
	saved, err := e.sessions.LoadUnlocked(ctx, clientID, d.Name())
	if err != nil {
		return nil, err
	}

	m, err := dsm.Hydrate(tmpl, saved, e.managerOptions(logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to hydrate dialogue: %w", err)
	}
	timedOut := m.TimedOut()
	if timedOut && e.hooks.OnTimeout != nil {
		e.hooks.OnTimeout(ctx, &domain.TurnEvent{
			EventBase: domain.EventBase{Timestamp: e.clock(), Type: domain.EventTimeout, Dialogue: d.Name()},
			ClientID:  clientID,
		})
	}
	logger.Debug("dialogue hydrated", "active", m.Active(), "timed_out", timedOut)

	result, err := d.Handle(ctx, m, text)
	if err != nil {
		return nil, fmt.Errorf("parse layer failed: %w", err)
	}

	reply := &domain.Reply{Dialogue: d.Name(), TimedOut: timedOut}
	var answer *domain.Answer
	if result != nil && m.Active() {
		reply.Focus = m.CurrentResource().Name
		logger.Debug("focus resolved", "resource", reply.Focus)
		if answer, err = m.Answer(d.Answers(), result); err != nil {
			return nil, err
		}
	}
	if answer == nil {
		logger.Warn("utterance not understood")
		answer = &domain.NotUnderstood
	} else {
		reply.Understood = true
	}
	reply.Answer = *answer

	// Dialogues that were never entered leave no trace.
	if !m.Active() {
		return reply, nil
	}

	next := m.Serialize()
	if next == nil {
		if err := e.store.Delete(ctx, clientID, d.Name()); err != nil {
			return nil, fmt.Errorf("failed to discard snapshot: %w", err)
		}
		if m.Finished() {
			logger.Info("dialogue finished")
		}
	} else if err := e.store.Save(ctx, clientID, next); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	reply.Finished = m.Finished()
	reply.Changes = domain.Diff(saved, next)
	return reply, nil
}

// Inspect hydrates the dialogue of a client without running a turn.
// Nothing is persisted.
func (e *Engine) Inspect(ctx context.Context, clientID, dialogue string) (*dsm.Manager, error) {
	d, ok := e.dialogues[dialogue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
	}
	tmpl, err := e.template(ctx, d)
	if err != nil {
		return nil, err
	}
	saved, err := e.sessions.Load(ctx, clientID, dialogue)
	if err != nil {
		return nil, err
	}
	logger := e.logger.With("dialogue", dialogue, "client_id", clientID)
	return dsm.Hydrate(tmpl, saved, e.managerOptions(logger)...)
}

// Reset discards the stored dialogue for a client.
func (e *Engine) Reset(ctx context.Context, clientID, dialogue string) error {
	if _, ok := e.dialogues[dialogue]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
	}
	return e.sessions.Delete(ctx, clientID, dialogue)
}

// Watch reports template changes when the loader supports it.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.templates.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current template loader does not support watching")
}

// Template returns the template in effect for a registered dialogue.
func (e *Engine) Template(ctx context.Context, dialogue string) (*domain.Template, error) {
	d, ok := e.dialogues[dialogue]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrDialogueNotFound, dialogue)
	}
	return e.template(ctx, d)
}

func (e *Engine) template(ctx context.Context, d Dialogue) (*domain.Template, error) {
	if e.templates != nil {
		tmpl, err := e.templates.Load(ctx, d.Name())
		if err == nil {
			return tmpl, nil
		}
		if !errors.Is(err, domain.ErrDialogueNotFound) {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
	}
	if p, ok := d.(TemplateProvider); ok {
		if tmpl := p.Template(); tmpl != nil {
			return tmpl, nil
		}
	}
	return nil, fmt.Errorf("%w: no template for %s", domain.ErrDialogueNotFound, d.Name())
}

func (e *Engine) managerOptions(logger *slog.Logger) []dsm.Option {
	opts := []dsm.Option{
		dsm.WithLogger(logger),
		dsm.WithHooks(e.hooks),
		dsm.WithClock(e.clock),
	}
	if e.expiration > 0 {
		opts = append(opts, dsm.WithExpiration(e.expiration))
	}
	return opts
}
