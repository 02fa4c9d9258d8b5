package events

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mcoot/pokersignup/internal/dependencies/clock"
	"github.com/mcoot/pokersignup/internal/model"
)

// EntryPayload is one roster line as sent to clients
type EntryPayload struct {
	PlayerID model.PlayerID `json:"player_id"`
	JoinedAt time.Time      `json:"joined_at"`
}

// ChangePayload describes the operation that caused a roster update
type ChangePayload struct {
	PlayerID model.PlayerID  `json:"player_id"`
	Action   string          `json:"action"`
	Placed   model.Placement `json:"placement,omitempty"`
	Promoted *model.PlayerID `json:"promoted,omitempty"`
}

// Payload is the JSON body of every game event
type Payload struct {
	Type       model.EventType `json:"type"`
	Timestamp  time.Time       `json:"timestamp"`
	GameID     model.GameID    `json:"game_id"`
	MaxPlayers int             `json:"max_players,omitempty"`
	MinPlayers int             `json:"min_players,omitempty"`
	Confirmed  []EntryPayload  `json:"confirmed"`
	Waiting    []EntryPayload  `json:"waiting"`
	Change     *ChangePayload  `json:"change,omitempty"`
}

// Publisher is what services use to announce game changes
type Publisher interface {
	RosterUpdated(game *model.Game, change *model.RosterChange)
	GameDeleted(gameID model.GameID)
}

// Broadcaster publishes game events to the hub watching each game
type Broadcaster struct {
	hubManager *HubManager
	clock      clock.Clock
	logger     *slog.Logger
}

var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hubManager *HubManager, clock clock.Clock, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hubManager: hubManager,
		clock:      clock,
		logger:     logger.With(slog.String("component", "sse-broadcaster")),
	}
}

// RosterUpdated sends the game's current roster to everyone watching it
func (b *Broadcaster) RosterUpdated(game *model.Game, change *model.RosterChange) {
	hub := b.hubManager.GetHub(game.ID)
	if hub == nil {
		return
	}

	event := model.Event{
		Type:      model.EventRosterUpdated,
		Timestamp: b.clock.Now(),
		GameID:    game.ID,
		Change:    change,
	}
	b.send(hub, event, game)
}

// GameDeleted tells watchers the game is gone, then ends their streams
func (b *Broadcaster) GameDeleted(gameID model.GameID) {
	if b.hubManager.GetHub(gameID) == nil {
		return
	}

	event := model.Event{
		Type:      model.EventGameDeleted,
		Timestamp: b.clock.Now(),
		GameID:    gameID,
	}
	// A nil farewell still closes the hub
	farewell, _ := b.encode(event, nil)
	b.hubManager.RemoveHub(gameID, farewell)
}

func (b *Broadcaster) send(hub *Hub, event model.Event, game *model.Game) {
	if message, ok := b.encode(event, game); ok {
		hub.Broadcast(message)
	}
}

// encode returns the event as a complete SSE message
func (b *Broadcaster) encode(event model.Event, game *model.Game) ([]byte, bool) {
	data, err := json.Marshal(NewPayload(event, game))
	if err != nil {
		b.logger.Error("sse failed to encode event",
			slog.String("game_id", string(event.GameID)),
			slog.Any("error", err))
		return nil, false
	}
	return formatSSEMessage(string(event.Type), string(data)), true
}

// NewPayload builds the wire form of an event. game may be nil.
func NewPayload(event model.Event, game *model.Game) Payload {
	p := Payload{
		Type:      event.Type,
		Timestamp: event.Timestamp,
		GameID:    event.GameID,
	}
	if game != nil {
		p.MaxPlayers = game.MaxPlayers
		p.MinPlayers = game.MinPlayers
		p.Confirmed = entries(game.Confirmed)
		p.Waiting = entries(game.Waiting)
	}
	if c := event.Change; c != nil {
		p.Change = &ChangePayload{
			PlayerID: c.PlayerID,
			Action:   c.Action,
			Placed:   c.Placed,
			Promoted: c.Promoted,
		}
	}
	return p
}

func entries(r model.Roster) []EntryPayload {
	out := make([]EntryPayload, len(r))
	for i, e := range r {
		out[i] = EntryPayload{PlayerID: e.PlayerID, JoinedAt: e.JoinedAt}
	}
	return out
}
