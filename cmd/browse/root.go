package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

const defaultAPI = "http://localhost:10000"

func newRootCommand() *cobra.Command {
	opts := &browserOptions{}

	rootCmd := &cobra.Command{
		Use:           "browse",
		Short:         "Browse movies and TV shows through the marquee API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	api := os.Getenv("MARQUEE_API_URL")
	if api == "" {
		api = defaultAPI
	}
	rootCmd.PersistentFlags().StringVar(&opts.api, "api", api, "Base URL of the marquee API (env MARQUEE_API_URL)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Per-view load timeout")
	rootCmd.PersistentFlags().DurationVar(&opts.ttl, "ttl", 5*time.Minute, "How long loaded views stay fresh")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "Print raw JSON instead of tables")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log cache and request activity to stderr")

	rootCmd.AddCommand(newTrendingCommand(opts))
	rootCmd.AddCommand(newSlidersCommand(opts))
	rootCmd.AddCommand(newDetailsCommand(opts))
	rootCmd.AddCommand(newSearchCommand(opts))
	rootCmd.AddCommand(newShellCommand(opts))

	return rootCmd
}
