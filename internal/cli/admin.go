package cli

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/pokersignup/internal/api/request"
	"github.com/mcoot/pokersignup/internal/api/response"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin commands",
	}

	games := &cobra.Command{
		Use:   "game",
		Short: "Schedule and manage games",
	}
	games.AddCommand(newAdminGameCreateCmd())
	games.AddCommand(newAdminGameUpdateCmd())
	games.AddCommand(newAdminGameDeleteCmd())
	games.AddCommand(newAdminGameRemovePlayerCmd())

	players := &cobra.Command{
		Use:   "player",
		Short: "Manage players",
	}
	players.AddCommand(newAdminPlayerListCmd())
	players.AddCommand(newAdminPlayerSetAdminCmd("promote", "Grant admin rights to a player", true))
	players.AddCommand(newAdminPlayerSetAdminCmd("demote", "Revoke a player's admin rights", false))
	players.AddCommand(newAdminPlayerImportCmd())

	cmd.AddCommand(games)
	cmd.AddCommand(players)

	return cmd
}

// parseTime accepts RFC 3339 or "YYYY-MM-DD HH:MM" in local time
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02 15:04", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or \"YYYY-MM-DD HH:MM\"", s)
	}
	return t, nil
}

func adminGamePath(id string) string {
	return "/api/v1/admin/games/" + url.PathEscape(id)
}

func newAdminGameCreateCmd() *cobra.Command {
	var req request.CreateGameRequest
	var at string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Schedule a new game",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduled, err := parseTime(at)
			if err != nil {
				return err
			}
			req.ScheduledAt = scheduled

			var result response.Game
			if err := client.Post("/api/v1/admin/games", req, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Title, "title", "", "Title")
	cmd.Flags().StringVar(&req.Location, "location", "", "Location")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&at, "at", "", "Start time (required)")
	cmd.Flags().IntVar(&req.MaxPlayers, "max", 9, "Number of seats")
	cmd.Flags().IntVar(&req.MinPlayers, "min", 0, "Players needed for the game to go ahead")
	_ = cmd.MarkFlagRequired("at")

	return cmd
}

func newAdminGameUpdateCmd() *cobra.Command {
	var title, location, notes, at string
	var maxPlayers, minPlayers int

	cmd := &cobra.Command{
		Use:   "update <game-id>",
		Short: "Edit a game; only the given flags change",
		Long: `Edit an upcoming game. Only the flags you pass are changed.

Raising --max promotes players from the waiting list in the order they
joined. --max cannot go below the number of confirmed players.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			var req request.UpdateGameRequest
			if flags.Changed("title") {
				req.Title = &title
			}
			if flags.Changed("location") {
				req.Location = &location
			}
			if flags.Changed("notes") {
				req.Notes = &notes
			}
			if flags.Changed("at") {
				t, err := parseTime(at)
				if err != nil {
					return err
				}
				req.ScheduledAt = &t
			}
			if flags.Changed("max") {
				req.MaxPlayers = &maxPlayers
			}
			if flags.Changed("min") {
				req.MinPlayers = &minPlayers
			}

			var result response.UpdateGameResponse
			if err := client.Patch(adminGamePath(args[0]), req, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Title")
	cmd.Flags().StringVar(&location, "location", "", "Location")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&at, "at", "", "Start time")
	cmd.Flags().IntVar(&maxPlayers, "max", 0, "Number of seats")
	cmd.Flags().IntVar(&minPlayers, "min", 0, "Players needed for the game to go ahead")

	return cmd
}

func newAdminGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game-id>",
		Short: "Cancel a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(adminGamePath(args[0]), nil); err != nil {
				return err
			}

			outputFor(cmd).PrintMessage(fmt.Sprintf("Deleted game %s", args[0]))
			return nil
		},
	}
}

func newAdminGameRemovePlayerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove-player <game-id> <player-id>",
		Short: "Take a player off a game's roster",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.LeaveResponse
			path := adminGamePath(args[0]) + "/players/" + url.PathEscape(args[1])
			if err := client.Delete(path, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPlayerListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all players, including invited ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.PlayerList
			if err := client.Get("/api/v1/admin/players", &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPlayerSetAdminCmd(use, short string, isAdmin bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <player-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.UpdatePlayerRequest{IsAdmin: &isAdmin}

			var result response.Player
			if err := client.Patch("/api/v1/admin/players/"+url.PathEscape(args[0]), req, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}

func newAdminPlayerImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Invite players from a list",
		Long: `Invite players from a file with one "email#first name#last name" entry
per line. Use "-" to read from standard input. Emails that already belong
to a player are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			var result response.ImportResponse
			if err := client.PostText("/api/v1/admin/players/import", in, &result); err != nil {
				return err
			}

			outputFor(cmd).Print(result)
			return nil
		},
	}
}
