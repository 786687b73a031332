package handlers

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client"
)

// TagHandler exposes tag and tag bundle tools.
type TagHandler struct {
	client *client.Client
}

func NewTagHandler(c *client.Client) *TagHandler { return &TagHandler{client: c} }

func (th *TagHandler) RegisterTools(s *server.MCPServer) error {
	s.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List every tag with the number of bookmarks carrying it"),
	), th.handleListTags)

	s.AddTool(mcp.NewTool("rename_tag",
		mcp.WithDescription("Rename a tag on every bookmark"),
		mcp.WithString("old", mcp.Required(), mcp.Description("Current tag name")),
		mcp.WithString("new", mcp.Required(), mcp.Description("New tag name")),
	), th.handleRenameTag)

	s.AddTool(mcp.NewTool("delete_tag",
		mcp.WithDescription("Remove a tag from every bookmark; the bookmarks stay"),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag to remove")),
	), th.handleDeleteTag)

	s.AddTool(mcp.NewTool("list_tag_bundles",
		mcp.WithDescription("List tag bundles (named groups of tags)"),
	), th.handleListBundles)

	s.AddTool(mcp.NewTool("set_tag_bundle",
		mcp.WithDescription("Create or replace a tag bundle"),
		mcp.WithString("bundle", mcp.Required(), mcp.Description("Bundle name")),
		mcp.WithArray("tags", mcp.Required(), mcp.Description("Tags in the bundle"), mcp.Items(map[string]any{"type": "string"})),
	), th.handleSetBundle)

	s.AddTool(mcp.NewTool("delete_tag_bundle",
		mcp.WithDescription("Delete a tag bundle; its tags are kept"),
		mcp.WithString("bundle", mcp.Required(), mcp.Description("Bundle name")),
	), th.handleDeleteBundle)
	return nil
}

func (th *TagHandler) handleListTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := th.client.Tags(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list_tags failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
	}
	return jsonResult(tags)
}

func (th *TagHandler) handleRenameTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	oldTag, err := req.RequireString("old")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	newTag, err := req.RequireString("new")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Debug().Str("old", oldTag).Str("new", newTag).Msg("rename_tag invoked")

	if err := th.client.RenameTag(ctx, oldTag, newTag); err != nil {
		log.Error().Err(err).Str("old", oldTag).Msg("rename_tag failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to rename tag: %v", err)), nil
	}
	return mcp.NewToolResultText("renamed"), nil
}

func (th *TagHandler) handleDeleteTag(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := th.client.DeleteTag(ctx, tag); err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("delete_tag failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete tag: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted"), nil
}

func (th *TagHandler) handleListBundles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	bundles, err := th.client.TagBundles(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list_tag_bundles failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list tag bundles: %v", err)), nil
	}
	return jsonResult(bundles)
}

func (th *TagHandler) handleSetBundle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("bundle")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tags := tagsArg(req, "tags")
	if len(tags) == 0 {
		return mcp.NewToolResultError("tags must not be empty"), nil
	}
	if err := th.client.SetTagBundle(ctx, name, tags); err != nil {
		log.Error().Err(err).Str("bundle", name).Msg("set_tag_bundle failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to set tag bundle: %v", err)), nil
	}
	return mcp.NewToolResultText("saved"), nil
}

func (th *TagHandler) handleDeleteBundle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("bundle")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := th.client.DeleteTagBundle(ctx, name); err != nil {
		log.Error().Err(err).Str("bundle", name).Msg("delete_tag_bundle failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete tag bundle: %v", err)), nil
	}
	return mcp.NewToolResultText("deleted"), nil
}
