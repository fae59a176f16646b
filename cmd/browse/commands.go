package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/briangreenhill/marquee/tmdb"
)

func kindArg(args []string) (tmdb.Kind, error) {
	if len(args) == 0 {
		return tmdb.Movie, nil
	}
	return tmdb.ParseKind(args[0])
}

func newTrendingCommand(opts *browserOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "trending [movie|tv]",
		Short: "Show one of today's trending titles",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			b, err := opts.open(cmd)
			if err != nil {
				return err
			}
			v := b.newView(cmd.Context(), "banner")
			defer v.close()
			return b.showTrending(cmd.Context(), cmd.OutOrStdout(), v, kind)
		},
	}
}

func newSlidersCommand(opts *browserOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "sliders [movie|tv]",
		Aliases: []string{"browse", "home"},
		Short:   "Show every listing category for movies or TV",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := kindArg(args)
			if err != nil {
				return err
			}
			b, err := opts.open(cmd)
			if err != nil {
				return err
			}
			return b.showSliders(cmd.Context(), cmd.OutOrStdout(), kind)
		},
	}
}

func newDetailsCommand(opts *browserOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "details <movie|tv> <id>",
		Short: "Show a title with its trailer and similar titles",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := tmdb.ParseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			b, err := opts.open(cmd)
			if err != nil {
				return err
			}
			views := b.newDetailViews(cmd.Context())
			defer views.close()
			return b.showDetails(cmd.Context(), cmd.OutOrStdout(), views, kind, id)
		},
	}
}

func newSearchCommand(opts *browserOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <person|movie|tv> <query...>",
		Short: "Search people, movies or TV shows",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := tmdb.ParseSearchTarget(args[0])
			if err != nil {
				return err
			}
			b, err := opts.open(cmd)
			if err != nil {
				return err
			}
			v := b.newView(cmd.Context(), "search")
			defer v.close()
			return b.showSearch(cmd.Context(), cmd.OutOrStdout(), v, target, strings.Join(args[1:], " "))
		},
	}
}
