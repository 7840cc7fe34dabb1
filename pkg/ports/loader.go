package ports

import (
	"context"

	"github.com/aretw0/parley/pkg/domain"
)

// TemplateLoader defines how the engine retrieves dialogue templates.
// This allows the template source (files, memory) to be decoupled.
type TemplateLoader interface {
	// Load returns the template of the named dialogue.
	// Returns domain.ErrDialogueNotFound if the dialogue is unknown.
	Load(ctx context.Context, dialogue string) (*domain.Template, error)

	// List returns the names of all available dialogues.
	List(ctx context.Context) ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying templates change.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
