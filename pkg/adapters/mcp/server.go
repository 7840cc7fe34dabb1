package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/internal/logging"
	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Engine is what the MCP server needs from the dialogue engine.
type Engine interface {
	ports.Engine
	Template(ctx context.Context, dialogue string) (*domain.Template, error)
}

// TurnArgs are the arguments of the dialogue_turn tool.
type TurnArgs struct {
	Dialogue  string `json:"dialogue"`
	ClientID  string `json:"client_id"`
	Utterance string `json:"utterance"`
}

// StateArgs are the arguments of the dialogue_state and dialogue_reset tools.
type StateArgs struct {
	Dialogue string `json:"dialogue"`
	ClientID string `json:"client_id"`
}

// TurnResponse is the structured result of dialogue_turn.
type TurnResponse struct {
	Answer     string `json:"answer" jsonschema_description:"Text to show the user"`
	Voice      string `json:"voice,omitempty" jsonschema_description:"Text to speak to the user"`
	Understood bool   `json:"understood" jsonschema_description:"Whether the utterance was understood"`
	Focus      string `json:"focus,omitempty" jsonschema_description:"Resource the dialogue is asking about"`
	Finished   bool   `json:"finished" jsonschema_description:"Whether the dialogue ended on this turn"`
	TimedOut   bool   `json:"timed_out,omitempty" jsonschema_description:"Whether a stale dialogue was discarded"`
}

// StateResponse is the structured result of dialogue_state.
type StateResponse struct {
	Active   bool                            `json:"active" jsonschema_description:"Whether the dialogue was entered"`
	TimedOut bool                            `json:"timed_out,omitempty"`
	Focus    string                          `json:"focus,omitempty" jsonschema_description:"Resource in focus"`
	States   map[string]domain.ResourceState `json:"states,omitempty" jsonschema_description:"State of every resource"`
}

// Server exposes an Engine as an MCP server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("parley-mcp", parley.Version),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(fmt.Sprintf("http://localhost:%d", port)))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())
	httpServer := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("dialogue_turn",
		mcp.WithDescription("Send one user utterance to a dialogue and get the reply."),
		mcp.WithString("dialogue", mcp.Required(), mcp.Description("Dialogue name")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithString("utterance", mcp.Required(), mcp.Description("What the user said")),
		mcp.WithOutputSchema[TurnResponse](),
	), mcp.NewStructuredToolHandler(s.handleTurn))

	s.mcpServer.AddTool(mcp.NewTool("dialogue_state",
		mcp.WithDescription("Inspect the stored dialogue of a client without running a turn."),
		mcp.WithString("dialogue", mcp.Required(), mcp.Description("Dialogue name")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Conversation owner")),
		mcp.WithOutputSchema[StateResponse](),
	), mcp.NewStructuredToolHandler(s.handleState))

	s.mcpServer.AddTool(mcp.NewTool("dialogue_reset",
		mcp.WithDescription("Discard the stored dialogue of a client."),
		mcp.WithString("dialogue", mcp.Required(), mcp.Description("Dialogue name")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Conversation owner")),
	), s.handleReset)
}

func (s *Server) handleTurn(ctx context.Context, _ mcp.CallToolRequest, args TurnArgs) (TurnResponse, error) {
	reply, err := s.engine.Process(ctx, args.ClientID, args.Dialogue, args.Utterance)
	if err != nil {
		s.logger.Warn("MCP turn failed", "dialogue", args.Dialogue, "err", err)
		return TurnResponse{}, fmt.Errorf("turn failed: %w", err)
	}
	return TurnResponse{
		Answer:     reply.Answer.Display,
		Voice:      reply.Answer.Spoken(),
		Understood: reply.Understood,
		Focus:      reply.Focus,
		Finished:   reply.Finished,
		TimedOut:   reply.TimedOut,
	}, nil
}

func (s *Server) handleState(ctx context.Context, _ mcp.CallToolRequest, args StateArgs) (StateResponse, error) {
	m, err := s.engine.Inspect(ctx, args.ClientID, args.Dialogue)
	if err != nil {
		return StateResponse{}, fmt.Errorf("inspect failed: %w", err)
	}
	resp := StateResponse{Active: m.Active(), TimedOut: m.TimedOut()}
	if !resp.Active || resp.TimedOut {
		return resp, nil
	}
	resp.Focus = m.CurrentResource().Name
	resp.States = make(map[string]domain.ResourceState)
	for _, r := range m.Resources() {
		resp.States[r.Name] = r.State
	}
	return resp, nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args StateArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	if err := s.engine.Reset(ctx, args.ClientID, args.Dialogue); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("parley://dialogues", "Registered dialogues",
		mcp.WithMIMEType("application/json"),
	), s.readDialogues)
}

func (s *Server) readDialogues(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type entry struct {
		Name      string             `json:"name"`
		Resources []*domain.Resource `json:"resources"`
	}
	var out []entry
	for _, name := range s.engine.Dialogues() {
		tmpl, err := s.engine.Template(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
		out = append(out, entry{Name: name, Resources: tmpl.Resources})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(raw),
		},
	}, nil
}
