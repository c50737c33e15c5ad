package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"tidycore/internal/ipc"
)

func newReloadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Reload configuration in the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("missing reload response")
				}
				if !resp.Reloaded {
					return fmt.Errorf("reload failed: %s", resp.Message)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Configuration reloaded")
				return nil
			})
		},
	}
}
