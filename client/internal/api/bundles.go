package api

import (
	"context"
	"sort"
	"strings"

	"github.com/delicious-go/delicious/client/internal/types"
)

const (
	pathBundlesAll    = "tags/bundles/all"
	pathBundlesSet    = "tags/bundles/set"
	pathBundlesDelete = "tags/bundles/delete"
)

// ListTagBundles returns every bundle sorted by name.
func ListTagBundles(ctx context.Context, d *Dispatcher) ([]types.TagBundle, error) {
	body, err := d.RequestPath(ctx, pathBundlesAll, nil)
	if err != nil {
		return nil, err
	}
	raw, err := types.DecodeBundles(body)
	if err != nil {
		return nil, decodeError(pathBundlesAll, err)
	}
	bundles := make([]types.TagBundle, 0, len(raw))
	for name, tags := range raw {
		bundles = append(bundles, types.TagBundle{Name: name, Tags: tags})
	}
	sort.Slice(bundles, func(i, j int) bool { return bundles[i].Name < bundles[j].Name })
	return bundles, nil
}

// SetTagBundle creates or replaces bundle with tags.
func SetTagBundle(ctx context.Context, d *Dispatcher, bundle string, tags []string) error {
	if err := types.ValidateTag(bundle, "bundle"); err != nil {
		return err
	}
	if len(tags) == 0 {
		return types.ValidateRequired("", "tags")
	}
	if err := types.ValidateTags(tags, "tags"); err != nil {
		return err
	}
	_, err := d.RequestPath(ctx, pathBundlesSet, map[string]string{
		"bundle": bundle,
		"tags":   strings.Join(tags, " "),
	})
	return err
}

// DeleteTagBundle removes bundle. Its tags are kept.
func DeleteTagBundle(ctx context.Context, d *Dispatcher, bundle string) error {
	if err := types.ValidateTag(bundle, "bundle"); err != nil {
		return err
	}
	_, err := d.RequestPath(ctx, pathBundlesDelete, map[string]string{"bundle": bundle})
	return err
}
