package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/pokersignup/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game signup commands",
	}

	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameStatusCmd())
	cmd.AddCommand(newGameJoinCmd())
	cmd.AddCommand(newGameLeaveCmd())
	cmd.AddCommand(newGameEventsCmd())

	return cmd
}

func gamePath(id string, suffix string) string {
	return "/api/v1/games/" + url.PathEscape(id) + suffix
}

func newGameListCmd() *cobra.Command {
	var past bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List upcoming games",
		RunE: func(cmd *cobra.Command, args []string) error {
			when := "upcoming"
			if past {
				when = "past"
			}

			var result response.GameList
			if err := client.Get("/api/v1/games?when="+when, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&past, "past", false, "List past games instead, most recent first")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show a game and its roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game
			if err := client.Get(gamePath(args[0], ""), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newGameStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <game-id>",
		Short: "Show how many seats are taken",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Capacity
			if err := client.Get(gamePath(args[0], "/capacity"), &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newGameJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <game-id>",
		Short: "Sign up for a game, or its waiting list when full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.JoinResponse
			if err := client.Post(gamePath(args[0], "/join"), nil, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newGameLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <game-id>",
		Short: "Give up your seat or waiting list place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.LeaveResponse
			if err := client.Post(gamePath(args[0], "/leave"), nil, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newGameEventsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "events <game-id>",
		Short: "Stream roster changes for a game",
		Long: `Connect to the game's SSE endpoint and stream events in real-time.

Events include:
  - connected: The stream is open
  - roster-update: Someone joined, left or was promoted, or the game was edited
  - game-deleted: The game was cancelled

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not logged in")
			}
			return streamEvents(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")

	return cmd
}
