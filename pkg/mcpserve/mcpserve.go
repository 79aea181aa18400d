// Package mcpserve exposes the query processor as an MCP tool server, so
// MCP-capable agents can solve queries against the thinking-model library.
package mcpserve

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ahoffer/cogito/pkg/query"
)

// handler executes one tool call with JSON input and returns a text result.
type handler func(ctx context.Context, input json.RawMessage) (string, error)

// Server serves query tools over the MCP protocol.
type Server struct {
	server *mcp.Server
	proc   *query.Processor
	log    *slog.Logger
}

// New creates a Server exposing solve_query, list_models, get_model, and
// library_summary.
func New(proc *query.Processor, version string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	s := &Server{
		server: mcp.NewServer(&mcp.Implementation{Name: "cogito", Version: version}, nil),
		proc:   proc,
		log:    log,
	}

	s.register("solve_query",
		"Solve a problem statement, guided by relevant thinking models when any apply.",
		`{"type":"object","properties":{"query":{"type":"string","description":"The problem statement to solve"}},"required":["query"]}`,
		s.handleSolveQuery)

	s.register("list_models",
		"List the available thinking models with their type and field.",
		`{"type":"object"}`,
		s.handleListModels)

	s.register("get_model",
		"Fetch a thinking model's full definition and examples by ID.",
		`{"type":"object","properties":{"id":{"type":"string","description":"Model ID"}},"required":["id"]}`,
		s.handleGetModel)

	s.register("library_summary",
		"Aggregate statistics over the thinking-model library.",
		`{"type":"object"}`,
		s.handleSummary)

	return s
}

func (s *Server) register(name, description, schema string, h handler) {
	tool := &mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: json.RawMessage(schema),
	}

	s.server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}

		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	})
}

// Serve reads MCP requests from in and writes responses to out, blocking
// until ctx is cancelled or the transport closes.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

// run starts the server on the given transport; tests call it directly
// with in-memory transports.
func (s *Server) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// --- tool handlers ---

type solveQueryInput struct {
	Query string `json:"query"`
}

func (s *Server) handleSolveQuery(ctx context.Context, input json.RawMessage) (string, error) {
	var in solveQueryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", fmt.Errorf("query must not be empty")
	}

	res := s.proc.Process(ctx, in.Query)
	if res.Failed() {
		return "", fmt.Errorf("query failed: %s", res.Err)
	}

	var b strings.Builder
	if len(res.SelectedModels) > 0 {
		fmt.Fprintf(&b, "Thinking models used: %s\n\n", strings.Join(res.SelectedModels, ", "))
	}
	b.WriteString(res.Solution)

	return b.String(), nil
}

func (s *Server) handleListModels(_ context.Context, _ json.RawMessage) (string, error) {
	models := s.proc.Library().All()

	type entry struct {
		ID    string `json:"id"`
		Kind  string `json:"type"`
		Field string `json:"field"`
	}

	entries := make([]entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, entry{ID: m.ID, Kind: m.Kind.String(), Field: m.Field})
	}

	out, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

type getModelInput struct {
	ID string `json:"id"`
}

func (s *Server) handleGetModel(_ context.Context, input json.RawMessage) (string, error) {
	var in getModelInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}

	m, ok := s.proc.Library().Get(in.ID)
	if !ok {
		return "", fmt.Errorf("model not found: %s", in.ID)
	}

	out, err := json.Marshal(m)
	if err != nil {
		return "", err
	}

	return string(out), nil
}

func (s *Server) handleSummary(_ context.Context, _ json.RawMessage) (string, error) {
	out, err := json.Marshal(s.proc.Summary())
	if err != nil {
		return "", err
	}

	return string(out), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
