package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiFlag     string
	timeoutFlag time.Duration
	rootCmd     = &cobra.Command{
		Use:   "searchctl",
		Short: "CLI client for the message search service",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8000", "Search service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 10*time.Second, "Request timeout")

	// search subcommand
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search cached messages",
		RunE: func(cmd *cobra.Command, args []string) error {
			var query *string
			if cmd.Flags().Changed("query") {
				q, _ := cmd.Flags().GetString("query")
				query = &q
			}
			page, _ := cmd.Flags().GetInt("page")
			size, _ := cmd.Flags().GetInt("page-size")
			return runSearch(newClient(apiFlag, timeoutFlag), query, page, size, cmd.OutOrStdout())
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search text (omit to list everything)")
	searchCmd.Flags().IntP("page", "p", 1, "Page number (1-indexed)")
	searchCmd.Flags().IntP("page-size", "s", 0, "Results per page (server default when 0)")
	rootCmd.AddCommand(searchCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show corpus and refresh statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(newClient(apiFlag, timeoutFlag), "/stats", cmd.OutOrStdout())
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "health",
		Short: "Show service health",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(newClient(apiFlag, timeoutFlag), "/api/health", cmd.OutOrStdout())
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
