package mcp

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/delicious-go/delicious/client"
	"github.com/delicious-go/delicious/internal/sandbox"
)

var expectedTools = []string{
	"add_bookmark", "delete_bookmark", "delete_tag", "delete_tag_bundle",
	"get_bookmark", "last_update", "list_bookmarks", "list_tag_bundles",
	"list_tags", "rename_tag", "set_tag_bundle",
}

func newTestServer(t *testing.T) *client.Client {
	t.Helper()
	sb := sandbox.New(sandbox.Config{})
	sb.AddUser("alice", "secret")
	srv := httptest.NewServer(sb)
	t.Cleanup(srv.Close)

	sdk, err := client.New(
		client.WithEndpoint(srv.URL+sb.Prefix()+"/"),
		client.WithCredentials("alice", "secret"),
		client.WithThrottle(0),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sdk.Close() })
	return sdk
}

func initialize(ctx context.Context, t *testing.T, c *mcpclient.Client) {
	t.Helper()
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: "2024-11-05",
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo:      mcp.Implementation{Name: "test-client", Version: "1.0.0"},
		},
	})
	require.NoError(t, err)
}

func toolNames(ctx context.Context, t *testing.T, c *mcpclient.Client) []string {
	t.Helper()
	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)
	names := make([]string, 0, len(tools.Tools))
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	return names
}

// TestMCPServerTransports serves the tools over the in-process (stdio-like)
// and streamable HTTP transports and calls one end to end.
func TestMCPServerTransports(t *testing.T) {
	s, err := NewServer(newTestServer(t))
	require.NoError(t, err)

	t.Run("InProcessTransport", func(t *testing.T) {
		tr := transport.NewInProcessTransport(s)
		require.NoError(t, tr.Start(context.Background()))
		defer tr.Close()

		c := mcpclient.NewClient(tr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		initialize(ctx, t, c)

		assert.Equal(t, expectedTools, toolNames(ctx, t, c))

		var req mcp.CallToolRequest
		req.Params.Name = "add_bookmark"
		req.Params.Arguments = map[string]any{"url": "https://go.dev/", "title": "Go", "tags": []any{"go"}}
		res, err := c.CallTool(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)

		req = mcp.CallToolRequest{}
		req.Params.Name = "list_tags"
		res, err = c.CallTool(ctx, req)
		require.NoError(t, err)
		require.NotEmpty(t, res.Content)
		tc, ok := res.Content[0].(mcp.TextContent)
		require.True(t, ok)
		var tags []client.Tag
		require.NoError(t, json.Unmarshal([]byte(tc.Text), &tags))
		assert.Equal(t, []client.Tag{{Name: "go", Count: 1}}, tags)
	})

	t.Run("HTTPTransport", func(t *testing.T) {
		httpSrv := httptest.NewServer(NewHTTPHandler(s, 30*time.Second))
		defer httpSrv.Close()

		tr, err := transport.NewStreamableHTTP(httpSrv.URL + EndpointPath)
		require.NoError(t, err)
		require.NoError(t, tr.Start(context.Background()))
		defer tr.Close()

		c := mcpclient.NewClient(tr)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		initialize(ctx, t, c)

		assert.Equal(t, expectedTools, toolNames(ctx, t, c))
	})
}
