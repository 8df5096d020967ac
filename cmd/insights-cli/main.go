// Package main provides the Insights Engine CLI entrypoint.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dealsense-ai/insights-engine/pkg/client"
)

var (
	baseURL    string
	outputJSON bool
	timeout    time.Duration

	api *client.Client
)

var rootCmd = &cobra.Command{
	Use:   "insights-cli",
	Short: "Query the Insights Engine API from the terminal",
	Long: `insights-cli runs sales-intelligence queries against a running
Insights Engine API server and renders the ranked deals, aggregate
statistics and generated narrative.

All commands support --json for automation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()

		if baseURL == "" {
			baseURL = os.Getenv("INSIGHTS_API_URL")
		}
		api = client.NewClient(client.Config{BaseURL: baseURL, Timeout: timeout})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&baseURL, "api-url", "", "API base URL (default: INSIGHTS_API_URL or http://localhost:8090)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output raw JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")

	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newHealthCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
