package forum

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterMCP registers the bot's tools on an MCP server.
func (s *Server) RegisterMCP(srv *mcp.Server) {
	addTool[sinceReq](srv, &mcp.Tool{
		Name:        "threadbot_commands_since",
		Description: "List the !commands posted after a post, with the post that carried each one.",
		InputSchema: inputSchema(map[string]any{
			"post_id": map[string]any{"type": "integer", "description": "Only posts with a greater id are scanned"},
			"limit":   map[string]any{"type": "integer", "description": "Max commands per post (0: all)"},
		}, []string{"post_id"}),
	}, s.commandsSince())

	addTool[sinceReq](srv, &mcp.Tool{
		Name:        "threadbot_posts_since",
		Description: "List the posts made after a post, following thread pages.",
		InputSchema: inputSchema(map[string]any{
			"post_id": map[string]any{"type": "integer", "description": "Only posts with a greater id are returned"},
		}, []string{"post_id"}),
	}, s.postsSince())

	addTool[replyReq](srv, &mcp.Tool{
		Name:        "threadbot_reply_thread",
		Description: "Post a BBCode reply to a thread, logging in first if needed.",
		InputSchema: inputSchema(map[string]any{
			"thread_id": map[string]any{"type": "integer", "description": "Thread id"},
			"content":   map[string]any{"type": "string", "description": "Reply body, 1 to 100000 characters"},
		}, []string{"thread_id", "content"}),
	}, s.replyThread())

	addTool[loginReq](srv, &mcp.Tool{
		Name:        "threadbot_login_status",
		Description: "Report whether the loaded page shows the bot logged in; with login=true, log in first.",
		InputSchema: inputSchema(map[string]any{
			"login": map[string]any{"type": "boolean", "description": "Log in before checking"},
		}, nil),
	}, s.loginStatus())
}

func inputSchema(properties map[string]any, required []string) map[string]any {
	sc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		sc["required"] = required
	}
	return sc
}

// addTool registers ep as a tool whose arguments decode into a *T.
func addTool[T any](srv *mcp.Server, tool *mcp.Tool, ep Endpoint) {
	srv.AddTool(tool, toolHandler[T](tool.Name, ep))
}

// toolHandler adapts ep to MCP. Absent arguments decode to the zero T. Bad
// arguments and bot failures are tool errors, never protocol errors.
func toolHandler[T any](name string, ep Endpoint) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := new(T)
		if req != nil && req.Params != nil && len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, args); err != nil {
				return toolError(fmt.Errorf("%s: invalid arguments: %w", name, err)), nil
			}
		}
		resp, err := ep(withTransport(ctx, "mcp"), args)
		if err != nil {
			return toolError(err), nil
		}
		return toolResult(name, resp), nil
	}
}

// toolResult encodes v as the single JSON text block of a result.
func toolResult(name string, v any) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Errorf("%s: marshal: %w", name, err))
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
