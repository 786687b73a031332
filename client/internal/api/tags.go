package api

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/delicious-go/delicious/client/internal/types"
)

const (
	pathTagsGet    = "tags/get"
	pathTagsDelete = "tags/delete"
	pathTagsRename = "tags/rename"
)

// ListTags returns every tag with its use count, sorted by name.
func ListTags(ctx context.Context, d *Dispatcher) ([]types.Tag, error) {
	body, err := d.RequestPath(ctx, pathTagsGet, nil)
	if err != nil {
		return nil, err
	}
	counts, invalid, err := types.DecodeTagCounts(body)
	if err != nil {
		return nil, decodeError(pathTagsGet, err)
	}
	if len(invalid) > 0 {
		log.Debug().Strs("tags", invalid).Msg("unparseable tag counts")
	}
	tags := make([]types.Tag, 0, len(counts))
	for name, n := range counts {
		tags = append(tags, types.Tag{Name: name, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// DeleteTag removes tag from every bookmark.
func DeleteTag(ctx context.Context, d *Dispatcher, tag string) error {
	if err := types.ValidateTag(tag, "tag"); err != nil {
		return err
	}
	_, err := d.RequestPath(ctx, pathTagsDelete, map[string]string{"tag": tag})
	return err
}

// RenameTag renames oldTag to newTag on every bookmark.
func RenameTag(ctx context.Context, d *Dispatcher, oldTag, newTag string) error {
	if err := types.ValidateTag(oldTag, "old"); err != nil {
		return err
	}
	if err := types.ValidateTag(newTag, "new"); err != nil {
		return err
	}
	_, err := d.RequestPath(ctx, pathTagsRename, map[string]string{"old": oldTag, "new": newTag})
	return err
}
