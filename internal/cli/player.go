package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player management commands",
	}

	cmd.AddCommand(newPlayerCreateCmd())
	cmd.AddCommand(newPlayerGetCmd())

	return cmd
}

func newPlayerCreateCmd() *cobra.Command {
	var name string
	var temp bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a player",
		Long:  "Create a player. A temporary player without --name gets a generated guest name.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" && !temp {
				return fmt.Errorf("--name is required unless --temp is set")
			}

			req := map[string]any{"username": name, "is_temp": temp}
			var result Player

			if err := client.Post("/api/v1/players", req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Username")
	cmd.Flags().BoolVar(&temp, "temp", false, "Create a temporary player")

	return cmd
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <player_id>",
		Short: "Show a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Player
			if err := client.Get(fmt.Sprintf("/api/v1/players/%d", id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}
