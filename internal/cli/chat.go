package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/aretw0/parley/pkg/runner"
)

// ChatOptions configures an interactive session.
type ChatOptions struct {
	Dialogue string
	ClientID string
	Greeting string
	// JSON switches to line-delimited JSON on both ends.
	JSON bool
	// Watch reloads templates while chatting.
	Watch bool
	// Plain disables markdown rendering and the banner.
	Plain bool

	In  io.Reader
	Out io.Writer
}

// RunChat talks to one dialogue until the user quits or the dialogue ends.
func RunChat(ctx context.Context, stack *Stack, opts ChatOptions, logger *slog.Logger) error {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ClientID == "" {
		opts.ClientID = "local"
	}

	var handler runner.IOHandler
	switch {
	case opts.JSON:
		handler = runner.NewJSONHandler(opts.In, opts.Out)
	case opts.Plain:
		handler = runner.NewTextHandler(opts.In, opts.Out)
	default:
		tui.PrintBanner(opts.Out, parley.Version, opts.Dialogue)
		handler = runner.NewTextHandler(opts.In, opts.Out, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}

	if opts.Watch {
		if err := watchTemplates(ctx, stack, handler, logger); err != nil {
			return err
		}
	}

	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(logger),
		runner.WithClientID(opts.ClientID),
		runner.WithDialogue(opts.Dialogue),
		runner.WithGreeting(opts.Greeting),
	)
	err := r.Run(ctx, stack.Engine)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func watchTemplates(ctx context.Context, stack *Stack, handler runner.IOHandler, logger *slog.Logger) error {
	if stack.Loader == nil {
		return fmt.Errorf("--watch needs a template directory")
	}
	events, err := stack.Engine.Watch(ctx)
	if err != nil {
		return err
	}
	go func() {
		for range events {
			logger.Info("templates reloaded")
			_ = handler.SystemOutput(ctx, "templates reloaded")
		}
	}()
	return nil
}
