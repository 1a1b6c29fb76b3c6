package cmd

import (
	"fmt"
	"io"

	"github.com/eysh-app/eysh/internal/config"
	"github.com/eysh-app/eysh/internal/output"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the response cache",
}

type cacheInfo struct {
	Backend string `json:"backend"`
	Session string `json:"session"`
	Dir     string `json:"dir,omitempty"`
	TTL     string `json:"ttl"`
	Entries int    `json:"entries"`
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the cache backend and entry count",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := env.cfg
		info := cacheInfo{
			Backend: cfg.Cache.Backend,
			Session: cfg.Cache.Session,
			TTL:     cfg.Cache.TTL.String(),
		}
		if cfg.Cache.Backend == config.CacheFile {
			info.Dir = cfg.Cache.SessionDir()
		}
		n, err := env.responseCache(ctx).Len(ctx)
		if err != nil {
			return fmt.Errorf("count cache entries: %w", err)
		}
		info.Entries = n

		return env.out.Print(info, func(w io.Writer) error {
			pairs := [][2]string{
				{"Backend", info.Backend + " (" + string(cfg.SourceOf("cache.backend")) + ")"},
				{"Session", info.Session},
				{"TTL", info.TTL},
				{"Entries", fmt.Sprint(info.Entries)},
			}
			if info.Dir != "" {
				pairs = append(pairs, [2]string{"Directory", info.Dir})
			}
			return output.Fields(w, pairs...)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached response",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		n, err := env.responseCache(ctx).Clear(ctx)
		if err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
		return env.out.Print(map[string]int{"removed": n}, func(w io.Writer) error {
			_, err := fmt.Fprintf(w, "Removed %d cached responses.\n", n)
			return err
		})
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
