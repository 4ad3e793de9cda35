package events

import (
	"encoding/json"
)

// LogFields extracts the indexed columns of an event log entry from a raw payload:
// game_id when present, integral and storable, and the creator or else the player address.
// Payloads that are not JSON objects yield nil for both.
func LogFields(data json.RawMessage) (gameID *uint64, player *string) {
	var raw struct {
		GameID  json.RawMessage `json:"game_id"`
		Creator string          `json:"creator"`
		Player  string          `json:"player"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil
	}

	if len(raw.GameID) > 0 && string(raw.GameID) != "null" {
		var id Uint64
		if err := json.Unmarshal(raw.GameID, &id); err == nil && uint64(id) <= MaxGameID {
			v := uint64(id)
			gameID = &v
		}
	}

	switch {
	case raw.Creator != "":
		player = &raw.Creator
	case raw.Player != "":
		player = &raw.Player
	}

	return gameID, player
}
