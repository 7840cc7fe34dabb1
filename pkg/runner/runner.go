package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/ports"
)

// Commands understood by the runner itself rather than the dialogue.
const (
	CommandQuit  = "/quit"
	CommandReset = "/reset"
)

// Runner drives an engine from an IOHandler: read an utterance, process a
// turn, present the reply.
type Runner struct {
	Handler   IOHandler
	Logger    *slog.Logger
	ClientID  string
	Dialogue  string
	Greeting  string
	KeepAlive bool
}

// NewRunner creates a Runner talking over stdin and stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger:   logging.NewNop(),
		ClientID: "local",
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Handler == nil {
		r.Handler = NewTextHandler(nil, nil)
	}
	return r
}

// Run loops until the input ends, the context is cancelled, the user quits
// or, unless KeepAlive is set, the dialogue finishes.
func (r *Runner) Run(ctx context.Context, engine ports.Engine) error {
	if r.Dialogue == "" {
		names := engine.Dialogues()
		if len(names) != 1 {
			return fmt.Errorf("a dialogue must be selected (available: %s)", strings.Join(names, ", "))
		}
		r.Dialogue = names[0]
	}
	logger := r.Logger.With("dialogue", r.Dialogue, "client_id", r.ClientID)

	if r.Greeting != "" {
		done, err := r.turn(ctx, engine, r.Greeting)
		if err != nil || done {
			return err
		}
	}

	for {
		text, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		switch strings.ToLower(text) {
		case "":
			continue
		case CommandQuit:
			return nil
		case CommandReset:
			if err := engine.Reset(ctx, r.ClientID, r.Dialogue); err != nil {
				return fmt.Errorf("reset failed: %w", err)
			}
			logger.Debug("dialogue reset")
			_ = r.Handler.SystemOutput(ctx, "dialogue reset")
			continue
		}

		done, err := r.turn(ctx, engine, text)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}

func (r *Runner) turn(ctx context.Context, engine ports.Engine, text string) (bool, error) {
	reply, err := engine.Process(ctx, r.ClientID, r.Dialogue, text)
	if err != nil {
		if IsInputError(err) {
			_ = r.Handler.SystemOutput(ctx, fmt.Sprintf("input rejected: %v", err))
			return false, nil
		}
		return false, fmt.Errorf("turn failed: %w", err)
	}
	if err := r.Handler.Output(ctx, reply); err != nil {
		return false, fmt.Errorf("output error: %w", err)
	}
	if reply.TimedOut {
		r.Logger.Debug("previous dialogue had expired")
	}
	return reply.Finished && !r.KeepAlive, nil
}
