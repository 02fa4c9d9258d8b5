package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/pokersignup/internal/model"
)

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time `json:"time"`
	Event string    `json:"event"`
	Data  string    `json:"data"`
}

func streamEvents(cmd *cobra.Command, gameID string, jsonOutput bool) error {
	out := cmd.OutOrStdout()
	endpoint := strings.TrimSuffix(cfg.ServerURL, "/") + gamePath(gameID, "/events")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Authorization", "Bearer "+cfg.Token)

	// No timeout for SSE
	resp, err := (&http.Client{}).Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintf(out, "Watching game %s\n", gameID)
	}

	scanner := bufio.NewScanner(resp.Body)
	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				printEvent(out, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
			}
			if currentEvent == string(model.EventGameDeleted) {
				return nil
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(out, "Disconnected")
	}
	return nil
}

func printEvent(out io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		jsonData, _ := json.Marshal(SSEEvent{Time: now, Event: event, Data: data})
		_, _ = fmt.Fprintln(out, string(jsonData))
		return
	}

	_, _ = fmt.Fprintf(out, "[%s] %s: %s\n", now.Format(time.DateTime), event, describeEvent(event, data))
}

// describeEvent summarises a roster payload for text output
func describeEvent(event, data string) string {
	var p struct {
		Confirmed  []json.RawMessage `json:"confirmed"`
		Waiting    []json.RawMessage `json:"waiting"`
		MaxPlayers int               `json:"max_players"`
		Change     *struct {
			PlayerID string  `json:"player_id"`
			Action   string  `json:"action"`
			Promoted *string `json:"promoted"`
		} `json:"change"`
	}
	if event != string(model.EventRosterUpdated) || json.Unmarshal([]byte(data), &p) != nil {
		return strings.ReplaceAll(data, "\n", " ")
	}

	summary := fmt.Sprintf("%d/%d confirmed, %d waiting", len(p.Confirmed), p.MaxPlayers, len(p.Waiting))
	if c := p.Change; c != nil {
		summary = fmt.Sprintf("%s %s; %s", c.PlayerID, c.Action, summary)
		if c.Promoted != nil {
			summary += fmt.Sprintf("; %s promoted", *c.Promoted)
		}
	}
	return summary
}
