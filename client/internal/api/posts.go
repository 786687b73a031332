package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
	"github.com/delicious-go/delicious/client/internal/job"
	"github.com/delicious-go/delicious/client/internal/types"
)

const (
	pathPostsAll    = "posts/all"
	pathPostsAdd    = "posts/add"
	pathPostsGet    = "posts/get"
	pathPostsDelete = "posts/delete"
)

// ListBookmarks fetches bookmarks matching req. Zero-valued filters are not
// sent.
func ListBookmarks(ctx context.Context, d *Dispatcher, req types.ListBookmarksRequest) (*types.BookmarkList, error) {
	params := map[string]string{}
	if req.Tag != "" {
		if err := types.ValidateTag(req.Tag, "tag"); err != nil {
			return nil, err
		}
		params["tag"] = req.Tag
	}
	if req.Offset < 0 || req.Count < 0 {
		return nil, fmt.Errorf("%w: offset and count must not be negative", types.ErrInvalidArgument)
	}
	if req.Offset > 0 {
		params["start"] = strconv.Itoa(req.Offset)
	}
	if req.Count > 0 {
		params["results"] = strconv.Itoa(req.Count)
	}
	if !req.FromDate.IsZero() {
		params["fromdt"] = types.FormatDate(req.FromDate)
	}
	if !req.ToDate.IsZero() {
		params["todt"] = types.FormatDate(req.ToDate)
	}
	if req.IncludeMeta {
		params["meta"] = "yes"
	}

	body, err := d.RequestPath(ctx, pathPostsAll, params)
	if err != nil {
		return nil, err
	}
	posts, meta, err := types.DecodePosts(body)
	if err != nil {
		return nil, decodeError(pathPostsAll, err)
	}
	list := &types.BookmarkList{Bookmarks: make([]types.Bookmark, 0, len(posts)), Meta: meta}
	for _, p := range posts {
		list.Bookmarks = append(list.Bookmarks, toBookmark(pathPostsAll, p))
	}
	return list, nil
}

// GetBookmark fetches a single bookmark by URL.
func GetBookmark(ctx context.Context, d *Dispatcher, bookmarkURL string) (*types.Bookmark, error) {
	if err := types.ValidateURL(bookmarkURL, "url"); err != nil {
		return nil, err
	}
	body, err := d.RequestPath(ctx, pathPostsGet, map[string]string{"url": bookmarkURL})
	if err != nil {
		return nil, err
	}
	posts, _, err := types.DecodePosts(body)
	if err != nil {
		return nil, decodeError(pathPostsGet, err)
	}
	if len(posts) == 0 {
		return nil, clienterrors.New(clienterrors.KindNotFound, fmt.Errorf("%s: no bookmark for %s", pathPostsGet, bookmarkURL))
	}
	match := posts[0]
	for _, p := range posts {
		if p.Href == bookmarkURL {
			match = p
			break
		}
	}
	b := toBookmark(pathPostsGet, match)
	return &b, nil
}

// AddBookmark stores req, replacing an existing bookmark only when
// req.Replace is set.
func AddBookmark(ctx context.Context, d *Dispatcher, req types.AddBookmarkRequest) error {
	params, err := addParams(req)
	if err != nil {
		return err
	}
	_, err = d.RequestPath(ctx, pathPostsAdd, params)
	return err
}

// AddBookmarkAsync validates req, then enqueues the write keyed by URL.
func AddBookmarkAsync(ctx context.Context, exec types.Executor, d *Dispatcher, req types.AddBookmarkRequest) (*types.EnqueueAck, error) {
	params, err := addParams(req)
	if err != nil {
		return nil, err
	}
	return enqueue(ctx, exec, req.URL, func(jobCtx context.Context) error {
		_, err := d.RequestPath(jobCtx, pathPostsAdd, params)
		return err
	})
}

// DeleteBookmark removes the bookmark for bookmarkURL.
func DeleteBookmark(ctx context.Context, d *Dispatcher, bookmarkURL string) error {
	if err := types.ValidateURL(bookmarkURL, "url"); err != nil {
		return err
	}
	_, err := d.RequestPath(ctx, pathPostsDelete, map[string]string{"url": bookmarkURL})
	return err
}

// DeleteBookmarkAsync enqueues a delete keyed by URL.
func DeleteBookmarkAsync(ctx context.Context, exec types.Executor, d *Dispatcher, bookmarkURL string) (*types.EnqueueAck, error) {
	if err := types.ValidateURL(bookmarkURL, "url"); err != nil {
		return nil, err
	}
	return enqueue(ctx, exec, bookmarkURL, func(jobCtx context.Context) error {
		_, err := d.RequestPath(jobCtx, pathPostsDelete, map[string]string{"url": bookmarkURL})
		return err
	})
}

func addParams(req types.AddBookmarkRequest) (map[string]string, error) {
	if err := types.ValidateURL(req.URL, "url"); err != nil {
		return nil, err
	}
	if err := types.ValidateRequired(req.Title, "title"); err != nil {
		return nil, err
	}
	if err := types.ValidateTags(req.Tags, "tags"); err != nil {
		return nil, err
	}

	params := map[string]string{
		"url":         req.URL,
		"description": req.Title,
	}
	if req.Description != "" {
		params["extended"] = req.Description
	}
	if len(req.Tags) > 0 {
		params["tags"] = strings.Join(req.Tags, ",")
	}
	if !req.IsShared() {
		params["shared"] = "no"
	}
	if req.Unread {
		params["toread"] = "yes"
	}
	if req.Replace {
		params["replace"] = "yes"
	}
	return params, nil
}

// enqueue submits fn on the shard for key. The job keeps the caller's values
// but not its cancellation, so it outlives the call that scheduled it.
func enqueue(ctx context.Context, exec types.Executor, key string, fn func(context.Context) error) (*types.EnqueueAck, error) {
	if exec == nil {
		return nil, fmt.Errorf("async write: client has no executor")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := exec.Submit(context.WithoutCancel(ctx), key, job.New(fn)); err != nil {
		return nil, err
	}
	return &types.EnqueueAck{JobID: uuid.NewString(), Key: key, Status: "enqueued"}, nil
}

// toBookmark converts p, keeping the bookmark when its time does not parse.
func toBookmark(path string, p types.Post) types.Bookmark {
	b, err := p.Bookmark()
	if err != nil {
		log.Debug().Err(err).Str("path", path).Str("time", p.Time).Msg("unparseable bookmark time")
	}
	return b
}
