package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client"
)

// maxToolBookmarks caps list_bookmarks so a reply fits in a model context.
const maxToolBookmarks = 500

// BookmarkHandler exposes bookmark tools.
type BookmarkHandler struct {
	client *client.Client
}

// NewBookmarkHandler returns a new handler.
func NewBookmarkHandler(c *client.Client) *BookmarkHandler {
	return &BookmarkHandler{client: c}
}

// RegisterTools registers bookmark tools.
func (bh *BookmarkHandler) RegisterTools(s *server.MCPServer) error {
	lastUpdate := mcp.NewTool("last_update",
		mcp.WithDescription("Time of the most recent change to the account; compare it before re-listing bookmarks"),
	)
	s.AddTool(lastUpdate, bh.handleLastUpdate)

	list := mcp.NewTool("list_bookmarks",
		mcp.WithDescription("List saved bookmarks, newest first, optionally filtered by tag and date range"),
		mcp.WithString("tag", mcp.Description("Only bookmarks carrying this tag")),
		mcp.WithNumber("offset", mcp.Description("Skip this many bookmarks")),
		mcp.WithNumber("count", mcp.Description(fmt.Sprintf("Max bookmarks (1-%d), default 100", maxToolBookmarks))),
		mcp.WithString("from", mcp.Description("Only bookmarks saved at or after this UTC time, e.g. 2024-05-01T00:00:00Z")),
		mcp.WithString("to", mcp.Description("Only bookmarks saved at or before this UTC time")),
	)
	s.AddTool(list, bh.handleListBookmarks)

	get := mcp.NewTool("get_bookmark",
		mcp.WithDescription("Get the bookmark saved for a URL"),
		mcp.WithString("url", mcp.Required(), mcp.Description("Bookmarked URL")),
	)
	s.AddTool(get, bh.handleGetBookmark)

	add := mcp.NewTool("add_bookmark",
		mcp.WithDescription("Save a bookmark. Fails if the URL is already saved unless replace is true"),
		mcp.WithString("url", mcp.Required(), mcp.Description("URL to save")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Bookmark title")),
		mcp.WithString("description", mcp.Description("Longer notes")),
		mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithBoolean("private", mcp.Description("Do not share the bookmark")),
		mcp.WithBoolean("unread", mcp.Description("Mark as to-read")),
		mcp.WithBoolean("replace", mcp.Description("Overwrite an existing bookmark")),
	)
	s.AddTool(add, bh.handleAddBookmark)

	del := mcp.NewTool("delete_bookmark",
		mcp.WithDescription("Delete the bookmark saved for a URL"),
		mcp.WithString("url", mcp.Required(), mcp.Description("Bookmarked URL")),
	)
	s.AddTool(del, bh.handleDeleteBookmark)
	return nil
}

func (bh *BookmarkHandler) handleLastUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := bh.client.LastUpdate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("last_update failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get last update: %v", err)), nil
	}
	return jsonResult(map[string]string{"updateTime": t.UTC().Format(client.DateLayout)})
}

func (bh *BookmarkHandler) handleListBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lr := client.ListBookmarksRequest{
		Tag:    stringArg(req, "tag"),
		Offset: intArg(req, "offset"),
		Count:  intArg(req, "count"),
	}
	if lr.Count <= 0 {
		lr.Count = 100
	}
	if lr.Count > maxToolBookmarks {
		lr.Count = maxToolBookmarks
	}
	if lr.Offset < 0 {
		return mcp.NewToolResultError("offset must not be negative"), nil
	}
	var err error
	if lr.FromDate, err = dateArg(req, "from"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if lr.ToDate, err = dateArg(req, "to"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Debug().Str("tag", lr.Tag).Int("offset", lr.Offset).Int("count", lr.Count).Msg("handling list_bookmarks request")

	start := time.Now()
	list, err := bh.client.ListBookmarks(ctx, lr)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("tag", lr.Tag).Dur("elapsed", elapsed).Msg("list_bookmarks failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list bookmarks: %v", err)), nil
	}

	log.Debug().Int("bookmarks", len(list.Bookmarks)).Dur("elapsed", elapsed).Msg("list_bookmarks completed")
	return jsonResult(list.Bookmarks)
}

func (bh *BookmarkHandler) handleGetBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	b, err := bh.client.Bookmark(ctx, url)
	if err != nil {
		if client.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("no bookmark saved for %s", url)), nil
		}
		log.Error().Err(err).Str("url", url).Msg("get_bookmark failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to get bookmark: %v", err)), nil
	}
	return jsonResult(b)
}

func (bh *BookmarkHandler) handleAddBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ar := client.AddBookmarkRequest{
		URL:         url,
		Title:       title,
		Description: stringArg(req, "description"),
		Tags:        tagsArg(req, "tags"),
		Shared:      client.Bool(!boolArg(req, "private")),
		Unread:      boolArg(req, "unread"),
		Replace:     boolArg(req, "replace"),
	}

	log.Debug().Str("url", url).Str("title", title).Strs("tags", ar.Tags).Msg("handling add_bookmark request")

	start := time.Now()
	err = bh.client.AddBookmark(ctx, ar)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("url", url).Dur("elapsed", elapsed).Msg("add_bookmark failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to add bookmark: %v", err)), nil
	}

	log.Debug().Str("url", url).Dur("elapsed", elapsed).Msg("add_bookmark completed")
	return mcp.NewToolResultText("saved"), nil
}

func (bh *BookmarkHandler) handleDeleteBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := bh.client.DeleteBookmark(ctx, url); err != nil {
		log.Error().Err(err).Str("url", url).Msg("delete_bookmark failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete bookmark: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted"), nil
}
