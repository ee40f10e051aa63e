package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/madina/internal/server"
)

var sweepOlderThan time.Duration

// madina sweep — repair orders stuck between workflow steps.
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Retry stalled order workflow steps (missing redirects, unsent codes)",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := server.Boot(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close(cmd.Context())

		repaired, err := app.Orders.SweepStalled(cmd.Context(), sweepOlderThan)
		if err != nil {
			return err
		}
		fmt.Printf("Swept stalled orders: %d repaired\n", repaired)
		return nil
	},
}

func init() {
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", time.Hour, "only touch orders stalled for at least this long")
}
