package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameRoundCmd())
	cmd.AddCommand(newGamePlayCmd())
	cmd.AddCommand(newGameComputerCmd())
	cmd.AddCommand(newGameWinnerCmd())
	cmd.AddCommand(newGameCloseCmd())

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game_id>",
		Short: "Show a game with its players and rounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Game
			if err := client.Get(fmt.Sprintf("/api/v1/games/%d", id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	var playerID int64
	var computer bool

	cmd := &cobra.Command{
		Use:   "join <game_id>",
		Short: "Seat a player (or the computer) in a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Seat
			if computer {
				err = client.Post(fmt.Sprintf("/api/v1/games/%d/players/computer", id), nil, &result)
			} else {
				if playerID < 1 {
					return fmt.Errorf("--player is required unless --computer is set")
				}
				err = client.Post(fmt.Sprintf("/api/v1/games/%d/players", id), map[string]any{"player_id": playerID}, &result)
			}
			if err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&playerID, "player", 0, "Player ID")
	cmd.Flags().BoolVar(&computer, "computer", false, "Seat a computer opponent")

	return cmd
}

func newGameRoundCmd() *cobra.Command {
	var round int
	var p1, p2 string
	var winner int64

	cmd := &cobra.Command{
		Use:   "round <game_id>",
		Short: "Record a round with a reported winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{
				"round_number": round,
				"p1_choice":    p1,
				"p2_choice":    p2,
			}
			if winner > 0 {
				req["winner_id"] = winner
			}

			var result RoundResult
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/rounds", id), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&round, "round", 0, "Round number (required)")
	cmd.Flags().StringVar(&p1, "p1", "", "Seat 1 choice (required)")
	cmd.Flags().StringVar(&p2, "p2", "", "Seat 2 choice (required)")
	cmd.Flags().Int64Var(&winner, "winner", 0, "Winning player ID (omit for a tie)")
	_ = cmd.MarkFlagRequired("round")
	_ = cmd.MarkFlagRequired("p1")
	_ = cmd.MarkFlagRequired("p2")

	return cmd
}

func newGamePlayCmd() *cobra.Command {
	var round int
	var p1, p2 string

	cmd := &cobra.Command{
		Use:   "play <game_id>",
		Short: "Record a round and let the server decide the winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{
				"round_number": round,
				"p1_choice":    p1,
				"p2_choice":    p2,
			}

			var result RoundResult
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/play", id), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&round, "round", 0, "Round number (required)")
	cmd.Flags().StringVar(&p1, "p1", "", "Seat 1 choice (required)")
	cmd.Flags().StringVar(&p2, "p2", "", "Seat 2 choice (required)")
	_ = cmd.MarkFlagRequired("round")
	_ = cmd.MarkFlagRequired("p1")
	_ = cmd.MarkFlagRequired("p2")

	return cmd
}

func newGameComputerCmd() *cobra.Command {
	var strategy string

	cmd := &cobra.Command{
		Use:   "vs-computer <game_id> <choice>",
		Short: "Play the next round against the computer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			req := map[string]any{"choice": args[1], "strategy": strategy}

			var result RoundResult
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/computer", id), req, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategy, "strategy", "random", "Computer strategy: random, counter")

	return cmd
}

func newGameWinnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "winner <game_id>",
		Short: "Evaluate whether anyone has won the game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Winner
			if err := client.Get(fmt.Sprintf("/api/v1/games/%d/winner", id), &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}
}

func newGameCloseCmd() *cobra.Command {
	var winner int64

	cmd := &cobra.Command{
		Use:   "close <game_id>",
		Short: "Close a game with the given winner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			var result Closure
			if err := client.Post(fmt.Sprintf("/api/v1/games/%d/close", id), map[string]any{"winner_id": winner}, &result); err != nil {
				return err
			}

			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&winner, "winner", 0, "Winning player ID (required)")
	_ = cmd.MarkFlagRequired("winner")

	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
