package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/agritag/internal/ui"
)

var vocabCmd = &cobra.Command{
	Use:     "vocab",
	Short:   "Show the crop and season vocabulary",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := agtClient.Vocabulary(context.Background())
		if err != nil {
			return fmt.Errorf("getting vocabulary: %w", err)
		}
		if jsonOutput {
			printJSON(v)
			return nil
		}
		fmt.Println(ui.RenderAccent("Crops:"))
		for i, c := range v.Crops {
			line := "  " + c
			if i == 0 {
				line += ui.RenderMuted(" (default)")
			}
			fmt.Println(line)
		}
		fmt.Println(ui.RenderAccent("Seasons:"))
		for i, s := range v.Seasons {
			line := "  " + s
			if i == 0 {
				line += ui.RenderMuted(" (default)")
			}
			fmt.Println(line)
		}
		fmt.Println(ui.RenderMuted("names: " + strings.Join([]string{v.PlotLabel + " N", v.PointLabel + " N"}, ", ")))
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check that features can be reached",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := agtClient.Health(context.Background())
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"status": status, "transport": transport})
			return nil
		}
		fmt.Printf("%s (%s)\n", status, transport)
		return nil
	},
}
