// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the note store to LLM agents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notekeeper/internal/store"
)

// Server wraps the MCP server with the note tools.
type Server struct {
	mcp  *server.MCPServer
	open store.Opener
}

// New creates a new MCP server with all note tools registered. Each tool call
// runs in its own store session.
func New(open store.Opener, version string) *Server {
	s := &Server{open: open}

	s.mcp = server.NewMCPServer(
		"notekeeper",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Returns the stored note including its assigned id."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title (may be empty)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body (may be empty)")),
	), s.withNotes(s.createNote))

	s.mcp.AddTool(mcp.NewTool("get_note",
		mcp.WithDescription("Fetch one note by id."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Integer note id")),
	), s.withNotes(s.getNote))

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes in id order with offset pagination."),
		mcp.WithNumber("skip", mcp.Description("Notes to skip (default 0)")),
		mcp.WithNumber("limit", mcp.Description("Maximum notes to return (default 10)")),
	), s.withNotes(s.listNotes))

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note by id. Returns the deleted note."),
		mcp.WithNumber("note_id", mcp.Required(), mcp.Description("Integer note id")),
	), s.withNotes(s.deleteNote))

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-sensitive substring search over note titles and contents."),
		mcp.WithString("keyword", mcp.Required(), mcp.Description("Substring to look for (non-empty)")),
	), s.withNotes(s.searchNotes))

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type notesHandler func(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// withNotes scopes a session to one tool call.
func (s *Server) withNotes(h notesHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sess, err := s.open(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire session: %w", err)
		}
		defer func() {
			if err := sess.Close(); err != nil {
				slog.Warn("release session failed", slog.String("error", err.Error()))
			}
		}()
		return h(ctx, sess, req)
	}
}

func (s *Server) createNote(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := notes.Create(ctx, title, content)
	if err != nil {
		return nil, err
	}
	return jsonResult(n)
}

func (s *Server) getNote(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := intArg(req, "note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return mcp.NewToolResultError("Note not found"), nil
	}
	return jsonResult(n)
}

func (s *Server) listNotes(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	skip, err := optionalIntArg(req, "skip", 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := optionalIntArg(req, "limit", 10)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if skip < 0 || limit < 0 {
		return mcp.NewToolResultError("skip and limit must be non-negative"), nil
	}
	ns, err := notes.List(ctx, int(skip), int(limit))
	if err != nil {
		return nil, err
	}
	return jsonResult(ns)
}

func (s *Server) deleteNote(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := intArg(req, "note_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := notes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return mcp.NewToolResultError("Note not found"), nil
	}
	ok, err := notes.DeleteByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return mcp.NewToolResultError("Failed to delete note"), nil
	}
	return jsonResult(n)
}

func (s *Server) searchNotes(ctx context.Context, notes store.Notes, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keyword, err := req.RequireString("keyword")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if keyword == "" {
		return mcp.NewToolResultError("keyword must not be empty"), nil
	}
	ns, err := notes.Search(ctx, keyword)
	if err != nil {
		return nil, err
	}
	return jsonResult(ns)
}

// intArg reads an integral number argument. JSON numbers arrive as float64,
// so fractional or out-of-range values are rejected instead of truncated.
func intArg(req mcp.CallToolRequest, key string) (int64, error) {
	v, err := req.RequireFloat(key)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || v < -(1<<63) || v >= 1<<63 {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int64(v), nil
}

// optionalIntArg is intArg with a default for an absent key.
func optionalIntArg(req mcp.CallToolRequest, key string, def int64) (int64, error) {
	if _, ok := req.GetArguments()[key]; !ok {
		return def, nil
	}
	return intArg(req, key)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
