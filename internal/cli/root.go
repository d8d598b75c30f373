// Package cli implements the petfeed operator command line.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/cache"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/config"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/container"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/database"
	"github.com/goleaf/petssocnnetworkmobile-sub017/internal/logger"
	"github.com/spf13/cobra"
)

// Opener builds the service container for a command run
type Opener func(ctx context.Context, cfg *config.Config) (*container.Container, error)

type options struct {
	verbose bool
	output  string
	server  string
	token   string
	open    Opener
	cfg     *config.Config
}

// NewRootCommand builds the command tree. A nil opener connects to the configured database.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &options{open: open}
	if opts.open == nil {
		opts.open = openDatabase
	}

	root := &cobra.Command{
		Use:   "petfeed",
		Short: "Pet feed operator tools",
		Long: `petfeed inspects and maintains the relevance-ranked pet feed:
recompute cached scores, preview a user's feed and explain a post's score.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return fmt.Errorf("unknown output format %q (want text or json)", opts.output)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg

			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			return logger.Initialize(level, cfg.Log.File)
		},
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "text", "Output format: text, json")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "Talk to a running server at this URL instead of the database")
	root.PersistentFlags().StringVar(&opts.token, "token", "", "Bearer token for --server")

	root.AddCommand(newRecomputeCommand(opts))
	root.AddCommand(newFeedCommand(opts))
	root.AddCommand(newScoreCommand(opts))
	root.AddCommand(newVersionCommand())

	return root
}

// Execute runs the CLI against the configured database
func Execute(ctx context.Context, out io.Writer) error {
	root := NewRootCommand(nil)
	root.SetOut(out)
	return root.ExecuteContext(ctx)
}

func (o *options) remote() *remoteClient {
	if o.server == "" {
		return nil
	}
	return newRemoteClient(o.server, o.token)
}

// app opens the container; callers defer the returned release
func (o *options) app(cmd *cobra.Command) (*container.Container, func(), error) {
	app, err := o.open(cmd.Context(), o.cfg)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := app.Cleanup(context.Background()); err != nil {
			logger.WarnWithFields("Cleanup failed", err)
		}
		_ = logger.Close()
	}
	return app, release, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*container.Container, error) {
	if err := database.Initialize(cfg.Database.DSN(), false); err != nil {
		return nil, err
	}

	var rc *cache.RedisClient
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, running without the run lock", err)
		} else {
			rc = client
		}
	}

	app, err := container.Build(database.DB, rc, cfg)
	if err != nil {
		return nil, err
	}
	app.OnCleanup(func(context.Context) error { return database.Close() })
	if rc != nil {
		app.OnCleanup(func(context.Context) error { return rc.Close() })
	}
	return app, nil
}
