package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/delicious-go/delicious/client"
)

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List tags with their use counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				tags, err := c.Tags(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, tags)
			})
		},
	}
}

func newRenameTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename-tag <old> <new>",
		Short: "Rename a tag on every bookmark",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.RenameTag(ctx, args[0], args[1]); err != nil {
					return err
				}
				return printDone(cmd, map[string]string{"old": args[0], "new": args[1]})
			})
		},
	}
}

func newDeleteTagCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-tag <tag>",
		Short: "Remove a tag from every bookmark",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteTag(ctx, args[0]); err != nil {
					return err
				}
				return printDone(cmd, map[string]string{"tag": args[0]})
			})
		},
	}
}

func newBundlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundles",
		Short: "List tag bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				bundles, err := c.TagBundles(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, bundles)
			})
		},
	}
}

func newSetBundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-bundle <name> <tag>...",
		Short: "Create or replace a tag bundle",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.SetTagBundle(ctx, args[0], args[1:]); err != nil {
					return err
				}
				return printDone(cmd, map[string]string{"bundle": args[0]})
			})
		},
	}
}

func newDeleteBundleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-bundle <name>",
		Short: "Delete a tag bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteTagBundle(ctx, args[0]); err != nil {
					return err
				}
				return printDone(cmd, map[string]string{"bundle": args[0]})
			})
		},
	}
}
