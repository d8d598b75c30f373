package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/container"
	apperrors "github.com/goleaf/petssocnnetworkmobile-sub017/internal/errors"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/ranking"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newScoreCommand(opts *options) *cobra.Command {
	var postID, viewerID string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Explain how a post is scored",
		Long: `Print every factor of a post's relevance score. With --viewer the
viewer's affinity, preferences and location are applied; otherwise the
neutral baseline that the scheduler caches is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.server != "" {
				return fmt.Errorf("score reads the database directly and cannot use --server")
			}

			app, release, err := opts.app(cmd)
			if err != nil {
				return err
			}
			defer release()

			signals, err := explainScore(cmd.Context(), app, postID, viewerID, time.Now())
			if err != nil {
				return err
			}
			return printSignals(cmd.OutOrStdout(), opts.output, postID, signals)
		},
	}

	cmd.Flags().StringVar(&postID, "post", "", "Post to explain (required)")
	cmd.Flags().StringVar(&viewerID, "viewer", "", "Score as seen by this user")
	_ = cmd.MarkFlagRequired("post")

	return cmd
}

func explainScore(ctx context.Context, app *container.Container, postID, viewerID string, now time.Time) (ranking.Signals, error) {
	post, err := app.Posts().GetByID(ctx, postID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ranking.Signals{}, fmt.Errorf("load post %s: %w", postID, apperrors.NotFound("post"))
	}
	if err != nil {
		return ranking.Signals{}, fmt.Errorf("load post %s: %w", postID, err)
	}

	shares, err := app.Posts().ShareCounts(ctx, postID)
	if err != nil {
		return ranking.Signals{}, err
	}
	saves, err := app.Posts().SaveCounts(ctx, postID)
	if err != nil {
		return ranking.Signals{}, err
	}
	followers, err := app.Users().FollowerCounts(ctx, post.AuthorID)
	if err != nil {
		return ranking.Signals{}, err
	}

	in := ranking.NewInput(post, shares[postID], saves[postID])
	author := ranking.AuthorSummary{FollowerCount: followers[post.AuthorID]}

	m := ranking.NeutralMultipliers()
	if viewerID != "" {
		vc, err := app.Viewers().ViewerContext(ctx, viewerID)
		if err != nil {
			return ranking.Signals{}, fmt.Errorf("load viewer %s: %w", viewerID, err)
		}

		var place *ranking.Point
		if post.PlaceID != nil && vc.Location != nil {
			places, err := app.Places().PlacesByID(ctx, []string{*post.PlaceID})
			if err != nil {
				return ranking.Signals{}, err
			}
			if p, ok := places[*post.PlaceID]; ok {
				place = &ranking.Point{Lat: p.Latitude, Lng: p.Longitude}
			}
		}
		m = vc.Multipliers(in, place)
	}

	return ranking.ComputeSignals(in, author, now, m)
}
