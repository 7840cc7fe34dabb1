package runner

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the reply of a turn.
	Output(ctx context.Context, reply *domain.Reply) error

	// Input reads the next utterance. It returns io.EOF when the user is done.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message (status, errors) distinct from answers.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms answer text before it is written, e.g. Markdown
// to ANSI. It keeps terminal styling out of this package.
type ContentRenderer func(string) (string, error)
