package main

import (
	"fmt"
	"os"

	"github.com/Sternrassler/artic-browser/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newCacheCmd() *cobra.Command {
	var redisURL string

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the cached artworks API responses",
	}
	cmd.PersistentFlags().StringVar(&redisURL, "redis-url", "", "Redis address or URL (REDIS_URL, default localhost:6379)")

	connect := func(cmd *cobra.Command) (*redis.Client, error) {
		raw := redisURL
		if raw == "" {
			raw = os.Getenv("REDIS_URL")
		}
		if raw == "" {
			raw = defaultServeOptions().redisURL
		}
		opts, err := redisOptions(raw)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(cmd.Context()).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		return rdb, nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show how many responses are cached",
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rdb.Close()

			st, err := cache.NewManager(rdb).Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries, %d bytes\n", st.Entries, st.Bytes)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Delete every cached response",
		Long:  "Deletes the cached API responses. Rate limit state is left alone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rdb, err := connect(cmd)
			if err != nil {
				return err
			}
			defer rdb.Close()

			n, err := cache.NewManager(rdb).Purge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries\n", n)
			return nil
		},
	})

	return cmd
}
