package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/pokersignup/internal/api/response"
)

const timeLayout = "Mon 02 Jan 2006 15:04"

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

func outputFor(cmd *cobra.Command) *Output {
	return NewOutput(cfg.Output, cmd.OutOrStdout())
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Player:
		o.printPlayer(v)
	case response.AuthResponse:
		o.printAuth(v)
	case response.PlayerList:
		o.printPlayerList(v)
	case response.GameList:
		o.printGameList(v)
	case response.Game:
		o.printGame(v)
	case response.Capacity:
		o.printCapacity(v)
	case response.JoinResponse:
		o.printJoin(v)
	case response.LeaveResponse:
		o.printLeave(v)
	case response.UpdateGameResponse:
		o.printUpdate(v)
	case response.ImportResponse:
		o.printImport(v)
	case response.Health:
		o.printHealth(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printPlayer(p response.Player) {
	o.printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	if p.Username != "" {
		o.printf("Username: %s\n", p.Username)
	}
	o.printf("Email: %s\n", p.Email)
	if p.IsAdmin {
		o.printf("Admin: yes\n")
	}
	if p.LastLoginAt != nil {
		o.printf("Last login: %s from %s\n", p.LastLoginAt.Local().Format(timeLayout), p.LastLoginIP)
	}
}

func (o *Output) printAuth(a response.AuthResponse) {
	o.printPlayer(a.Player)
	o.printf("Token: %s\n", a.SessionToken)
	o.printf("Expires: %s\n", a.ExpiresAt.Local().Format(timeLayout))
}

func (o *Output) printPlayerList(l response.PlayerList) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tUSERNAME\tEMAIL\tADMIN")
	for _, p := range l.Players {
		username := p.Username
		if username == "" {
			username = "(invited)"
		}
		admin := ""
		if p.IsAdmin {
			admin = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.DisplayName, username, p.Email, admin)
	}
	_ = tw.Flush()
}

func (o *Output) printGameList(l response.GameList) {
	if len(l.Games) == 0 {
		o.printf("No games\n")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tWHEN\tTITLE\tSEATS\tWAITING\tYOU")
	for _, g := range l.Games {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%d\t%s\n",
			g.ID, g.ScheduledAt.Local().Format(timeLayout), g.Title,
			g.ConfirmedCount, g.MaxPlayers, g.WaitingCount, g.MyPlacement)
	}
	_ = tw.Flush()
}

func (o *Output) printGame(g response.Game) {
	o.printf("Game: %s (%s)\n", g.Title, g.ID)
	o.printf("When: %s\n", g.ScheduledAt.Local().Format(timeLayout))
	if g.Location != "" {
		o.printf("Where: %s\n", g.Location)
	}
	if g.Notes != "" {
		o.printf("Notes: %s\n", g.Notes)
	}
	o.printf("Seats: %d/%d (minimum %d)\n", len(g.Confirmed), g.MaxPlayers, g.MinPlayers)
	if g.IsPast {
		o.printf("This game is in the past\n")
	}
	if g.MyPlacement != "" {
		o.printf("You are: %s\n", g.MyPlacement)
	}
	o.printRoster("Confirmed", g.Confirmed)
	o.printRoster("Waiting list", g.Waiting)
}

func (o *Output) printRoster(title string, entries []response.RosterEntry) {
	if len(entries) == 0 {
		return
	}
	o.printf("%s (%d):\n", title, len(entries))
	for i, e := range entries {
		name := e.DisplayName
		if name == "" {
			name = e.PlayerID
		}
		o.printf("  %d. %s (joined %s)\n", i+1, name, e.JoinedAt.Local().Format(time.DateTime))
	}
}

func (o *Output) printCapacity(c response.Capacity) {
	o.printf("Confirmed: %d/%d\n", c.Confirmed, c.Capacity)
	o.printf("Open seats: %d\n", c.OpenSeats)
	if c.Full {
		o.printf("Game is full, new players join the waitlist\n")
	}
	o.printf("Waiting: %d\n", c.Waiting)
	if c.HasMinimum {
		o.printf("Minimum of %d players reached\n", c.MinPlayers)
	} else {
		o.printf("Needs %d more for the minimum of %d\n", c.MinPlayers-c.Confirmed, c.MinPlayers)
	}
}

func (o *Output) printJoin(j response.JoinResponse) {
	switch j.Outcome {
	case "confirmed":
		o.printf("You have a seat at %s\n", j.Game.Title)
	case "waitlisted":
		// A new waiting entry always goes to the back of the list
		o.printf("The game is full; you are number %d on the waiting list\n", len(j.Game.Waiting))
	default:
		o.printf("You are already %s for %s\n", j.Placement, j.Game.Title)
	}
}

func (o *Output) printLeave(l response.LeaveResponse) {
	o.printf("Removed %s (%s) from %s\n", l.PlayerID, l.Placement, l.Game.Title)
	if l.Promoted != nil {
		o.printf("Promoted from the waiting list: %s\n", *l.Promoted)
	}
}

func (o *Output) printUpdate(u response.UpdateGameResponse) {
	o.printGame(u.Game)
	if len(u.Promoted) > 0 {
		o.printf("Promoted from the waiting list: %s\n", strings.Join(u.Promoted, ", "))
	}
}

func (o *Output) printImport(r response.ImportResponse) {
	o.printf("Created: %d\n", r.Created)
	o.printf("Skipped: %d\n", r.Skipped)
	if len(r.Rejected) > 0 {
		o.printf("Rejected (%d):\n", len(r.Rejected))
		for _, line := range r.Rejected {
			o.printf("  %s\n", line)
		}
	}
}

func (o *Output) printHealth(h response.Health) {
	o.printf("Status: %s\n", h.Status)
	if h.Storage != "" {
		o.printf("Storage: %s\n", h.Storage)
	}
}
