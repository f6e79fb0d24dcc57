package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/grasp"
	"github.com/aretw0/grasp/internal/logging"
	"github.com/aretw0/grasp/pkg/domain"
	"github.com/aretw0/grasp/pkg/ports"
	"github.com/aretw0/grasp/pkg/wire"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateURI names the hold state resource.
const StateURI = "grasp://state"

// StatusLine is one notification as published on the bus.
type StatusLine struct {
	Channel domain.Channel `json:"channel" jsonschema_description:"feedback, object_acquired or handoff_complete"`
	Success bool           `json:"success"`
	Code    int            `json:"status_code" jsonschema_description:"0 on success, 1 when nothing is held"`
	Message string         `json:"message"`
	Text    string         `json:"text" jsonschema_description:"The literal status line"`
}

// CommandResponse aligns with the HTTP CommandResult schema.
type CommandResponse struct {
	Command       domain.CommandKind `json:"command"`
	State         domain.HoldState   `json:"state" jsonschema_description:"Hold state after the command"`
	Notifications []StatusLine       `json:"notifications"`
	Error         string             `json:"error,omitempty"`
}

// Server exposes a node as an MCP server.
type Server struct {
	node      ports.Commander
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger. MCP over stdio owns stdout, so logs must go elsewhere.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(node ports.Commander, opts ...Option) *Server {
	s := &Server{
		node: node,
		mcpServer: server.NewMCPServer("grasp-mcp", strings.TrimSpace(grasp.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout until ctx is cancelled or the input closes.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("MCP server listening (stdio)")
	err := server.NewStdioServer(s.mcpServer).Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) registerTools() {
	// TOOL: pick
	pickTool := mcp.NewTool("pick",
		mcp.WithDescription("Pick up an object. Always succeeds and replaces any object already held."),
		mcp.WithString("label", mcp.Required(), mcp.Description("Name of the object to pick")),
		mcp.WithOutputSchema[CommandResponse](),
	)
	s.mcpServer.AddTool(pickTool, s.handlePick)

	// TOOL: handoff
	handoffTool := mcp.NewTool("handoff",
		mcp.WithDescription("Hand off the held object. Fails with status_code 1 when nothing is held."),
		mcp.WithOutputSchema[CommandResponse](),
	)
	s.mcpServer.AddTool(handoffTool, s.handleHandoff)

	// TOOL: get_state
	s.mcpServer.AddTool(mcp.NewTool("get_state",
		mcp.WithDescription("Get the current hold state."),
		mcp.WithOutputSchema[domain.HoldState](),
	), mcp.NewStructuredToolHandler(s.handleGetState))
}

func (s *Server) handlePick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pick, err := wire.DecodePickMap(request.GetArguments())
	if err != nil {
		s.logger.Warn("MCP Pick: Invalid arguments", "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("invalid pick: %v", err)), nil
	}
	return s.submit(ctx, pick)
}

func (s *Server) handleHandoff(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.submit(ctx, domain.Handoff{})
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.HoldState, error) {
	return s.node.State(), nil
}

func (s *Server) submit(ctx context.Context, cmd domain.Command) (*mcp.CallToolResult, error) {
	res, err := s.node.Submit(ctx, cmd)
	if err != nil && !errors.Is(err, domain.ErrNotHolding) {
		s.logger.Error("MCP command failed", "command", cmd.Kind(), "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", cmd.Kind(), err)), nil
	}

	resp := toResponse(res)
	if err != nil {
		resp.Error = err.Error()
	}
	lines := make([]string, len(resp.Notifications))
	for i, n := range resp.Notifications {
		lines[i] = string(n.Channel) + ": " + n.Text
	}

	result := mcp.NewToolResultStructured(resp, strings.Join(lines, "\n"))
	result.IsError = err != nil
	return result, nil
}

func toResponse(res domain.Result) CommandResponse {
	resp := CommandResponse{
		Command:       res.Command,
		State:         res.State,
		Notifications: make([]StatusLine, len(res.Notifications)),
	}
	for i, n := range res.Notifications {
		resp.Notifications[i] = StatusLine{
			Channel: n.Channel,
			Success: n.Success,
			Code:    n.Code,
			Message: n.Message,
			Text:    wire.FormatStatus(n),
		}
	}
	return resp
}

func (s *Server) registerResources() {
	// EXPOSE: grasp://state
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Hold State",
		mcp.WithResourceDescription("Whether the gripper holds an object, and which"),
		mcp.WithMIMEType("application/json"),
	), s.readState)
}

func (s *Server) readState(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	jsonBytes, err := json.Marshal(s.node.State())
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      StateURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
