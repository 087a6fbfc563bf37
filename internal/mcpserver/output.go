package mcpserver

import (
	"encoding/json"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"
)

// format selects how a tool result's payload is rendered to text.
// toon is the default, matching the rest of the pack's MCP surfaces;
// json is offered for callers that want to parse the result themselves.
type format string

const (
	formatTOON format = "toon"
	formatJSON format = "json"
)

func parseFormat(raw string) format {
	switch raw {
	case "json":
		return formatJSON
	default:
		return formatTOON
	}
}

func render(data any, f format) (string, error) {
	if f == formatJSON {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toolResult(data any, f format) (*mcp.CallToolResult, any, error) {
	text, err := render(data, f)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}, nil, nil
}
