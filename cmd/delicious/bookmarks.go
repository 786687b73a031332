package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/delicious-go/delicious/client"
	"github.com/delicious-go/delicious/internal/config"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Check the configured credentials against the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Username == "" || cfg.Password == "" {
				return fmt.Errorf("username and password are required (flags, %s_USERNAME/%s_PASSWORD or config file)", config.EnvPrefix, config.EnvPrefix)
			}
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				start := time.Now()
				user, err := c.Authenticate(ctx, cfg.Username, cfg.Password)
				elapsed := time.Since(start)
				if err != nil {
					log.Error().Err(err).Str("username", cfg.Username).Dur("elapsed", elapsed).Msg("authentication failed")
					return err
				}
				log.Debug().Str("username", user).Dur("elapsed", elapsed).Msg("authenticated")
				return printJSON(cmd, map[string]string{"username": user})
			})
		},
	}
}

func newLastUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "last-update",
		Short: "Print the time of the last change to the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				t, err := c.LastUpdate(ctx)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]string{"update_time": t.UTC().Format(client.DateLayout)})
			})
		},
	}
}

func newListCmd() *cobra.Command {
	var (
		tag      string
		offset   int
		count    int
		from, to string
		meta     bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, optionally filtered by tag and date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.ListBookmarksRequest{Tag: tag, Offset: offset, Count: count, IncludeMeta: meta}
			var err error
			if req.FromDate, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if req.ToDate, err = parseDateFlag("to", to); err != nil {
				return err
			}
			if req.Count == 0 && req.Tag == "" && req.Offset == 0 {
				req.Count = client.DefaultBookmarkCount
			}

			log.Debug().Str("tag", tag).Int("offset", offset).Int("count", req.Count).Msg("listing bookmarks")

			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				start := time.Now()
				list, err := c.ListBookmarks(ctx, req)
				elapsed := time.Since(start)
				if err != nil {
					log.Error().Err(err).Str("tag", tag).Dur("elapsed", elapsed).Msg("list bookmarks failed")
					return err
				}
				log.Debug().Int("bookmarks", len(list.Bookmarks)).Dur("elapsed", elapsed).Msg("list bookmarks completed")
				dbg(list.Meta)
				return printJSON(cmd, list)
			})
		},
	}

	cmd.Flags().StringVar(&tag, "tag", "", "Only bookmarks carrying this tag")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip this many bookmarks")
	cmd.Flags().IntVar(&count, "count", 0, "Return at most this many bookmarks")
	cmd.Flags().StringVar(&from, "from", "", "Only bookmarks saved at or after this time ("+client.DateLayout+")")
	cmd.Flags().StringVar(&to, "to", "", "Only bookmarks saved at or before this time ("+client.DateLayout+")")
	cmd.Flags().BoolVar(&meta, "meta", false, "Include change-detection signatures")
	return cmd
}

func newAddCmd() *cobra.Command {
	var (
		title, description string
		tags               []string
		private, unread    bool
		replace            bool
		fetch              bool
		async              bool
	)

	cmd := &cobra.Command{
		Use:   "add <url>",
		Short: "Save a bookmark",
		Long: `Save a bookmark for <url>.

With --fetch-title a missing --title is read from the page's <title>; this
makes a request to the bookmarked site.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.AddBookmarkRequest{
				URL:         args[0],
				Title:       title,
				Description: description,
				Tags:        tags,
				Shared:      client.Bool(!private),
				Unread:      unread,
				Replace:     replace,
			}

			// The queue reports async failures here rather than to the caller.
			asyncErr := make(chan error, 1)
			onError := client.WithErrorHandler(func(err error) {
				select {
				case asyncErr <- err:
				default:
				}
			})

			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if req.Title == "" && fetch {
					t, err := fetchTitle(ctx, req.URL)
					if err != nil {
						log.Warn().Err(err).Str("url", req.URL).Msg("could not fetch page title")
					}
					req.Title = t
				}
				if req.Title == "" {
					return errors.New("a title is required: pass --title or --fetch-title")
				}

				log.Debug().Str("url", req.URL).Str("title", req.Title).Strs("tags", req.Tags).Bool("async", async).Msg("adding bookmark")

				start := time.Now()
				if async {
					ack, err := c.AddBookmarkAsync(ctx, req)
					if err != nil {
						return err
					}
					if err := c.AwaitConsistency(ctx, req.URL); err != nil {
						return err
					}
					dbg(ack)
					select {
					case err := <-asyncErr:
						log.Error().Err(err).Str("url", req.URL).Dur("elapsed", time.Since(start)).Msg("add bookmark failed")
						return err
					default:
					}
				} else if err := c.AddBookmark(ctx, req); err != nil {
					log.Error().Err(err).Str("url", req.URL).Dur("elapsed", time.Since(start)).Msg("add bookmark failed")
					return err
				}
				log.Debug().Str("url", req.URL).Dur("elapsed", time.Since(start)).Msg("add bookmark completed")
				return printDone(cmd, map[string]string{"url": req.URL, "title": req.Title})
			}, onError)
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Bookmark title")
	cmd.Flags().StringVar(&description, "description", "", "Longer notes")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "Comma-separated tags")
	cmd.Flags().BoolVar(&private, "private", false, "Do not share the bookmark")
	cmd.Flags().BoolVar(&unread, "unread", false, "Mark as to-read")
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite an existing bookmark for the URL")
	cmd.Flags().BoolVar(&fetch, "fetch-title", false, "Read a missing title from the page")
	cmd.Flags().BoolVar(&async, "async", false, "Send through the write queue and wait for it to drain")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <url>",
		Short: "Show the bookmark saved for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				b, err := c.Bookmark(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, b)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete the bookmark saved for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *client.Client) error {
				if err := c.DeleteBookmark(ctx, args[0]); err != nil {
					log.Error().Err(err).Str("url", args[0]).Msg("delete bookmark failed")
					return err
				}
				return printDone(cmd, map[string]string{"url": args[0]})
			})
		},
	}
}

func parseDateFlag(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(client.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: %w", name, err)
	}
	return t, nil
}
