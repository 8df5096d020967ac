package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check API server health",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.Health(context.Background()); err != nil {
				color.New(color.FgRed).Println("✗ service unavailable")
				return err
			}

			if outputJSON {
				fmt.Println(`{"status":"healthy"}`)
				return nil
			}
			color.New(color.FgGreen).Println("✓ service healthy")
			return nil
		},
	}
}
