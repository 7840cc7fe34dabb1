package runner

import (
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.Logger = logger
		}
	}
}

// WithInputHandler configures a custom IOHandler.
func WithInputHandler(handler IOHandler) Option {
	return func(r *Runner) {
		r.Handler = handler
	}
}

// WithClientID sets the client the turns are processed for.
func WithClientID(id string) Option {
	return func(r *Runner) {
		r.ClientID = id
	}
}

// WithDialogue selects the dialogue to talk to.
func WithDialogue(name string) Option {
	return func(r *Runner) {
		r.Dialogue = name
	}
}

// WithGreeting sends an utterance before reading any input, typically the
// hotword that enters the dialogue.
func WithGreeting(utterance string) Option {
	return func(r *Runner) {
		r.Greeting = utterance
	}
}

// WithKeepAlive keeps the loop running after a dialogue finishes, so the
// next utterance can start it again.
func WithKeepAlive(keep bool) Option {
	return func(r *Runner) {
		r.KeepAlive = keep
	}
}
