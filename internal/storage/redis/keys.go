package redis

import (
	"fmt"

	"github.com/mcoot/pokersignup/internal/model"
)

// keys builds Redis keys under a common prefix
type keys struct {
	prefix string
}

// player returns the key for a Player document
func (k keys) player(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", k.prefix, id)
}

// players returns the key for the SET of all player IDs
func (k keys) players() string {
	return fmt.Sprintf("%s:idx:players", k.prefix)
}

// email returns the key for the email -> player_id index
func (k keys) email(email string) string {
	return fmt.Sprintf("%s:idx:email:%s", k.prefix, model.NormalizeEmail(email))
}

// registeredPlayer returns the key for a RegisteredPlayer
func (k keys) registeredPlayer(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", k.prefix, playerID)
}

// username returns the key for the username -> player_id index
func (k keys) username(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", k.prefix, username)
}

// game returns the key for a Game document
func (k keys) game(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", k.prefix, id)
}

// games returns the key for the SET of all game IDs
func (k keys) games() string {
	return fmt.Sprintf("%s:idx:games", k.prefix)
}
