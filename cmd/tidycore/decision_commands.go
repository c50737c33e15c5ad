package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"tidycore/internal/decisions"
	"tidycore/internal/ipc"
)

func newDecisionsCommand(ctx *commandContext) *cobra.Command {
	decisionsCmd := &cobra.Command{
		Use:   "decisions",
		Short: "Inspect and revise folder organization decisions",
	}

	var listLimit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent folder decisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DecisionList(listLimit)
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp == nil || len(resp.Decisions) == 0 {
					fmt.Fprintln(stdout, "No folder decisions recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Decisions))
				for _, decision := range resp.Decisions {
					rows = append(rows, []string{
						shortID(decision.ID),
						decision.OriginalPath,
						formatCategory(decision.Category, decision.Subcategory),
						decisionStateLabel(decision.State),
						formatTimestamp(decision.CreatedAt),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Original Path", "Category", "State", "Decided"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of decisions to show")

	undoCmd := &cobra.Command{
		Use:   "undo <decision-id>",
		Short: "Move a folder back to its original location",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DecisionUndo(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", resp.Decision.OriginalPath)
				return nil
			})
		},
	}

	ignoreCmd := &cobra.Command{
		Use:   "ignore <decision-id>",
		Short: "Stop organizing a folder's original location",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("decision ignore requires exactly one id")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DecisionIgnore(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ignoring %s from now on\n", resp.Decision.OriginalPath)
				return nil
			})
		},
	}

	decisionsCmd.AddCommand(listCmd)
	decisionsCmd.AddCommand(undoCmd)
	decisionsCmd.AddCommand(ignoreCmd)
	return decisionsCmd
}

func decisionStateLabel(state string) string {
	switch state {
	case decisions.StateActive:
		return "active"
	case decisions.StateUndone:
		return "undone"
	case decisions.StateIgnored:
		return "ignored"
	default:
		return state
	}
}
