// Command admin is the cache-maintenance CLI: cache statistics, scoped and
// full cache clears, and a nuclear option requiring explicit confirmation,
// grounded on rcliao-briefly/cmd/handlers's cobra root/subcommand shape.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/cache"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/config"
	"github.com/Varshithvhegde/summarizely-ai-backend/internal/observability"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "news-admin",
		Short: "Cache maintenance for the news personalization backend",
		Long: `news-admin inspects and clears the Redis cache layer backing the
news personalization backend.

Examples:
  news-admin stats
  news-admin clear
  news-admin force
  news-admin complete-stats
  news-admin nuclear`,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default NEWS_CONFIG_FILE or configs/config.yaml)")

	root.AddCommand(newStatsCmd())
	root.AddCommand(newClearCmd())
	root.AddCommand(newForceCmd())
	root.AddCommand(newCompleteStatsCmd())
	root.AddCommand(newNuclearCmd())

	return root
}

func openLayer() (*cache.Layer, error) {
	if cfgFile != "" {
		os.Setenv("NEWS_CONFIG_FILE", cfgFile)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	logger := observability.NewLogger("news-admin")
	ttls := cache.TTLs{
		AllArticles:        cfg.TTLs.AllArticles,
		Similar:            cfg.TTLs.Similar,
		SimilarLRU:         cfg.TTLs.SimilarLRU,
		SimilarBloom:       cfg.TTLs.SimilarBloom,
		SimilarStats:       cfg.TTLs.SimilarStats,
		Personalized:       cfg.TTLs.Personalized,
		PersonalizedSearch: cfg.TTLs.PersonalizedSearch,
		PrefsVersion:       cfg.TTLs.PrefsVersion,
		ReadHistory:        cfg.TTLs.ReadHistory,
		DailyViews:         cfg.TTLs.DailyViews,
		Engagement:         cfg.TTLs.Engagement,
	}
	return cache.NewLayer(cache.RedisConfig{
		Address:      cfg.Cache.Address,
		Password:     cfg.Cache.Password,
		Database:     cfg.Cache.Database,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
		PoolSize:     cfg.Cache.PoolSize,
		MinIdleConns: cfg.Cache.MinIdleConns,
		MaxRetries:   cfg.Cache.MaxRetries,
	}, ttls, cfg.Similarity.LRUMaxSize, logger)
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print cache connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := openLayer()
			if err != nil {
				return err
			}
			fmt.Println("cache layer connected:", layer.Client() != nil)
			return nil
		},
	}
}

func newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cache except user preferences (asks for confirmation)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm("This clears all cached articles, similarity, and personalization data (user preferences are preserved). Continue? [y/N] ") {
				fmt.Println("aborted")
				return nil
			}
			return runClearAllExceptUser(cmd)
		},
	}
}

func newForceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force",
		Short: "Clear all cache except user preferences without prompting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClearAllExceptUser(cmd)
		},
	}
}

func runClearAllExceptUser(cmd *cobra.Command) error {
	layer, err := openLayer()
	if err != nil {
		return err
	}
	report := layer.ClearAllExceptUser(cmd.Context())
	writeReport(report)
	fmt.Printf("cleared %d keys across %d patterns (%d errors) in %dms\n", report.TotalKeys, len(report.Steps), report.Errors, report.ElapsedMS)
	return nil
}

func newCompleteStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete-stats",
		Short: "List the per-subject statistics namespaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			layer, err := openLayer()
			if err != nil {
				return err
			}
			namespaces := []cache.Namespace{cache.NamespaceSimilarStats, cache.NamespacePersonalizedStats}
			for _, ns := range namespaces {
				fmt.Printf("%s: per-subject (query similar-stats/:id for a single article)\n", ns)
			}
			_ = layer
			return nil
		},
	}
}

func newNuclearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "nuclear",
		Short: "Wipe every key in the cache database (the search index is not touched)",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Print(`This permanently deletes every key in the cache database. The search
index is not dropped. Type NUCLEAR to confirm: `)
			reader := bufio.NewReader(os.Stdin)
			line, _ := reader.ReadString('\n')
			token := strings.TrimSpace(line)

			layer, err := openLayer()
			if err != nil {
				return err
			}
			report, err := layer.NuclearClear(cmd.Context(), token, nil)
			if err != nil {
				return err
			}
			writeReport(report)
			fmt.Printf("cleared %d keys (%d errors) in %dms\n", report.TotalKeys, report.Errors, report.ElapsedMS)
			return nil
		},
	}
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func writeReport(report cache.AdminReport) {
	name := fmt.Sprintf("cache_clear_metrics_%d.json", time.Now().UnixMilli())
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(name, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write report %s: %v\n", name, err)
		return
	}
	fmt.Println("wrote report:", name)
}
