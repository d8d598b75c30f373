package cli

import (
	"fmt"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/feed"
	"github.com/spf13/cobra"
)

func newFeedCommand(opts *options) *cobra.Command {
	var (
		viewerID     string
		feedType     string
		limit        int
		cursor       string
		contentTypes []string
		topics       []string
		petIDs       []string
		highQuality  bool
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Preview a user's feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := feed.Query{
				Type:   feed.Type(feedType),
				Limit:  limit,
				Cursor: cursor,
				Filters: feed.Filters{
					ContentTypes:    contentTypes,
					Topics:          topics,
					PetIDs:          petIDs,
					HighQualityOnly: highQuality,
				},
			}

			if rc := opts.remote(); rc != nil {
				page, err := rc.Feed(cmd.Context(), q)
				if err != nil {
					return err
				}
				return printPage(cmd.OutOrStdout(), opts.output, page)
			}

			if viewerID == "" {
				return fmt.Errorf("--viewer is required unless --server is set")
			}
			app, release, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer release()

			page, err := app.Assembler().GetFeed(cmd.Context(), viewerID, q)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), opts.output, page)
		},
	}

	cmd.Flags().StringVar(&viewerID, "viewer", "", "User whose feed to build; --server uses the token's user")
	cmd.Flags().StringVar(&feedType, "type", string(feed.TypeHome), "Feed type: home, explore, following, local, my-pets")
	cmd.Flags().IntVar(&limit, "limit", feed.DefaultLimit, "Page size (1-50)")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Cursor from a previous page")
	cmd.Flags().StringSliceVar(&contentTypes, "content-types", nil, "Only these post types")
	cmd.Flags().StringSliceVar(&topics, "topics", nil, "Only posts with one of these hashtags")
	cmd.Flags().StringSliceVar(&petIDs, "pet-ids", nil, "Only posts tagging one of these pets")
	cmd.Flags().BoolVar(&highQuality, "high-quality", false, "Only posts above the quality threshold")

	return cmd
}
