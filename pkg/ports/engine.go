package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/dsm"
)

// Engine is the turn-processing surface used by transport adapters.
type Engine interface {
	// Process runs one full turn of a dialogue for a client.
	Process(ctx context.Context, clientID, dialogue, utterance string) (*domain.Reply, error)

	// Inspect hydrates the dialogue without running a turn or persisting anything.
	Inspect(ctx context.Context, clientID, dialogue string) (*dsm.Manager, error)

	// Reset discards the stored dialogue for a client.
	Reset(ctx context.Context, clientID, dialogue string) error

	// Dialogues returns the names of the registered dialogues.
	Dialogues() []string
}
