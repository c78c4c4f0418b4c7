package main

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artic-browser",
		Short: "Browse and select artworks from the Art Institute of Chicago",
		Long: `artic-browser serves a paginated table of artworks from the Art Institute
of Chicago public API. Rows can be selected one by one, a page at a time,
or in bulk, and the selection is kept while paging.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}
