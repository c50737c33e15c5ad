package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"tidycore/internal/ipc"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate move statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)

				fmt.Fprintf(stdout, "Today: %d moves\n", resp.TodayCount)
				fmt.Fprintf(stdout, "Total: %d moves (%s)\n", resp.TotalCount, formatBytes(resp.TotalBytes))

				if len(resp.TodayByCategory) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Today by Category", colorize) {
						fmt.Fprintln(stdout, line)
					}
					categories := make([]string, 0, len(resp.TodayByCategory))
					for category := range resp.TodayByCategory {
						categories = append(categories, category)
					}
					sort.Strings(categories)
					rows := make([][]string, 0, len(categories))
					for _, category := range categories {
						rows = append(rows, []string{category, fmt.Sprintf("%d", resp.TodayByCategory[category])})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Category", "Moves"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}

				if len(resp.Week) > 0 {
					fmt.Fprintln(stdout)
					for _, line := range renderSectionHeader("Last 7 Days", colorize) {
						fmt.Fprintln(stdout, line)
					}
					rows := make([][]string, 0, len(resp.Week))
					for _, day := range resp.Week {
						rows = append(rows, []string{day.Day, fmt.Sprintf("%d", day.Count)})
					}
					fmt.Fprintln(stdout, renderTable(
						[]string{"Day", "Moves"},
						rows,
						[]columnAlignment{alignLeft, alignRight},
					))
				}
				return nil
			})
		},
	}
}

func newRecentCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "List recently organized files and folders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Recent(limit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp == nil || len(resp.Operations) == 0 {
					fmt.Fprintln(stdout, "No recorded moves")
					return nil
				}
				rows := make([][]string, 0, len(resp.Operations))
				for _, op := range resp.Operations {
					kind := "file"
					if op.IsFolder {
						kind = "folder"
					}
					rows = append(rows, []string{
						formatTimestamp(op.MovedAt),
						kind,
						op.SourcePath,
						formatCategory(op.Category, op.Subcategory),
						formatBytes(op.SizeBytes),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Moved At", "Type", "Source", "Category", "Size"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
				))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of moves to show")
	return cmd
}
