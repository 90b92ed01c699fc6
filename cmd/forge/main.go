package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "forge",
		Short: "Filter, cluster, and score topic news from noisy feeds",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(runCmd())
	root.AddCommand(feedCmd())
	root.AddCommand(reposCmd())
	root.AddCommand(eventsCmd())
	root.AddCommand(scanCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(daemonCmd())

	return root
}

func runCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one pipeline pass: fetch, filter, cluster, score",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "print the run report as JSON")
	return cmd
}

func feedCmd() *cobra.Command {
	var (
		jsonOutput bool
		day        string
		minTotal   int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Show the scored story feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(jsonOutput, day, minTotal, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&day, "day", "", "filter to one UTC day (YYYY-MM-DD)")
	cmd.Flags().IntVar(&minTotal, "min-total", 0, "minimum total score")
	cmd.Flags().IntVar(&limit, "limit", 20, "max stories to show")
	return cmd
}

func reposCmd() *cobra.Command {
	var (
		jsonOutput bool
		tier       string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "repos",
		Short: "Show rubric-scored ecosystem repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepos(jsonOutput, tier, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().StringVar(&tier, "tier", "", "filter by tier (featured, listed, watchlist, skip)")
	cmd.Flags().IntVar(&limit, "limit", 30, "max repos to show")
	return cmd
}

func eventsCmd() *cobra.Command {
	var (
		jsonOutput bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show scraped community events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	cmd.Flags().IntVar(&limit, "limit", 30, "max events to show")
	return cmd
}

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run the repo and event scans once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func daemonCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Start scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
