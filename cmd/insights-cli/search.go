package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dealsense-ai/insights-engine/pkg/client"
)

func newSearchCmd() *cobra.Command {
	var params client.SearchParams

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run an insights query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Query = args[0]

			resp, err := api.Search(context.Background(), params)
			if err != nil {
				return err
			}

			if outputJSON {
				os.Stdout.Write(resp.Raw)
				fmt.Println()
				return nil
			}

			renderSearchResponse(resp)
			return nil
		},
	}

	cmd.Flags().IntVar(&params.Year, "year", 0, "fiscal year filter")
	cmd.Flags().IntVar(&params.Quarter, "quarter", 0, "fiscal quarter filter (1-4)")
	cmd.Flags().IntVar(&params.Month, "month", 0, "month filter (1-12)")
	cmd.Flags().StringVar(&params.DateStart, "date-start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&params.DateEnd, "date-end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&params.Seller, "seller", "", "seller name filter")
	cmd.Flags().StringVar(&params.Phase, "phase", "", "deal phase filter")
	cmd.Flags().StringVar(&params.Source, "source", "", "source filter (pipeline, won, lost)")
	cmd.Flags().IntVar(&params.TopK, "top-k", 0, "number of candidates (5-200)")
	cmd.Flags().Float64Var(&params.MinSimilarity, "min-similarity", 0, "similarity cutoff (0-1)")

	return cmd
}

func renderSearchResponse(resp *client.SearchResponse) {
	header := color.New(color.FgCyan, color.Bold)
	dim := color.New(color.Faint)
	warn := color.New(color.FgYellow)

	header.Printf("Resultados para: %s\n", resp.Query)
	dim.Printf("recuperados=%d finais=%d cache=%v relaxed=%v total=%dms\n",
		resp.RAG.RetrievedCount, resp.Quality.PostFilterCount,
		resp.RAG.CacheHit, resp.RAG.ThresholdRelaxed, resp.LatencyMS.Total)

	if resp.RAG.Adaptive.Enabled {
		warn.Printf("Janela de datas ampliada: %s\n", resp.RAG.Adaptive.Reason)
	}
	if resp.RAG.Freshness.Stale {
		warn.Printf("Atenção: embeddings defasados em %.1f horas\n", resp.RAG.Freshness.LagHours)
	}

	fmt.Println()
	header.Println("Negócios")
	for i, d := range resp.Deals {
		fmt.Printf("%2d. [%s] %s", i+1, d.Source, d.Opportunity)
		dim.Printf("  sim=%.4f score=%.4f\n", d.Similarity, d.RankScore)
	}

	fmt.Println()
	header.Printf("Estatísticas (total %d)\n", resp.Stats.Total)
	fmt.Printf("  ganhos=%d perdidos=%d ciclo_médio=%.1fd parado_médio=%.1fd\n",
		resp.WinsStats.Total, resp.LossesStats.Total,
		resp.Stats.AvgCycleDays, resp.Stats.AvgIdleDays)

	fmt.Println()
	renderInsights(resp)
}

func renderInsights(resp *client.SearchResponse) {
	header := color.New(color.FgCyan, color.Bold)
	status := resp.AIInsights.Status

	header.Printf("Análise (%s)\n", status)
	if status != "rag" {
		color.New(color.FgYellow).Printf("  %s\n", firstOrEmpty(resp.AIInsights.Wins))
		return
	}

	section := func(title string, bullets []string) {
		color.New(color.Bold).Printf("  %s\n", title)
		for _, b := range bullets {
			fmt.Printf("   - %s\n", b)
		}
	}

	section("Vitórias", resp.AIInsights.Wins)
	section("Derrotas", resp.AIInsights.Losses)
	section("Recomendações", resp.AIInsights.Recommendations)
}

func firstOrEmpty(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
