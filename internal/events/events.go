// Package events turns raw Move events of the arcade contract into typed payloads.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/shopspring/decimal"
)

// Event type names as they appear after the last "::" of the Move type tag.
const (
	TypeGameCreated  = "GameCreatedEvent"
	TypeGameJoined   = "GameJoinedEvent"
	TypeGameFinished = "GameFinishedEvent"
)

// NoWinner is the address the contract reports when a game ends without a winner.
const NoWinner = "0x0"

// MaxGameID is the largest game id the read model can store. SQLite integers are signed
// 64-bit, so the upper half of the Move u64 range is rejected as malformed.
const MaxGameID = math.MaxInt64

// ErrMalformedPayload is returned when a known event carries an invalid payload.
var ErrMalformedPayload = errors.New("malformed event payload")

// EventTypeName returns the segment after the final "::" of a Move type tag.
// A tag without "::" is returned unchanged.
func EventTypeName(tag string) string {
	if idx := strings.LastIndex(tag, "::"); idx != -1 {
		return tag[idx+2:]
	}
	return tag
}

// Payload is a decoded event. The concrete type is one of
// *GameCreated, *GameJoined, *GameFinished or *Opaque.
type Payload interface {
	EventType() string
	isPayload()
}

// GameCreated is emitted when a player opens a new game.
type GameCreated struct {
	GameID    uint64
	Creator   string
	BetAmount decimal.Decimal
}

// GameJoined is emitted when a second player joins a waiting game.
type GameJoined struct {
	GameID    uint64
	Player    string
	BetAmount decimal.Decimal
}

// GameFinished is emitted when a game is settled.
type GameFinished struct {
	GameID      uint64
	Winner      string
	Loser       string
	PrizeAmount decimal.Decimal
}

// HasWinner reports whether the game was won by an actual address.
func (g *GameFinished) HasWinner() bool {
	return g.Winner != "" && g.Winner != NoWinner
}

// Opaque is any event the indexer does not route.
type Opaque struct {
	Type string
}

func (*GameCreated) EventType() string  { return TypeGameCreated }
func (*GameJoined) EventType() string   { return TypeGameJoined }
func (*GameFinished) EventType() string { return TypeGameFinished }
func (o *Opaque) EventType() string     { return o.Type }

func (*GameCreated) isPayload()  {}
func (*GameJoined) isPayload()   {}
func (*GameFinished) isPayload() {}
func (*Opaque) isPayload()       {}

// Decode parses data according to eventType. Unknown types decode to *Opaque.
// Known types with missing or invalid fields return an error wrapping ErrMalformedPayload.
func Decode(eventType string, data json.RawMessage) (Payload, error) {
	switch eventType {
	case TypeGameCreated:
		var raw struct {
			GameID    *Uint64          `json:"game_id"`
			Creator   *string          `json:"creator"`
			BetAmount *decimal.Decimal `json:"bet_amount"`
		}
		if err := unmarshal(eventType, data, &raw); err != nil {
			return nil, err
		}
		if err := requireFields(eventType, field{"game_id", raw.GameID != nil},
			field{"creator", raw.Creator != nil && *raw.Creator != ""},
			field{"bet_amount", raw.BetAmount != nil}); err != nil {
			return nil, err
		}
		if err := validateGameID(eventType, *raw.GameID); err != nil {
			return nil, err
		}
		if err := validateAmount(eventType, "bet_amount", *raw.BetAmount); err != nil {
			return nil, err
		}
		return &GameCreated{GameID: uint64(*raw.GameID), Creator: *raw.Creator, BetAmount: *raw.BetAmount}, nil

	case TypeGameJoined:
		var raw struct {
			GameID    *Uint64          `json:"game_id"`
			Player    *string          `json:"player"`
			BetAmount *decimal.Decimal `json:"bet_amount"`
		}
		if err := unmarshal(eventType, data, &raw); err != nil {
			return nil, err
		}
		if err := requireFields(eventType, field{"game_id", raw.GameID != nil},
			field{"player", raw.Player != nil && *raw.Player != ""},
			field{"bet_amount", raw.BetAmount != nil}); err != nil {
			return nil, err
		}
		if err := validateGameID(eventType, *raw.GameID); err != nil {
			return nil, err
		}
		if err := validateAmount(eventType, "bet_amount", *raw.BetAmount); err != nil {
			return nil, err
		}
		return &GameJoined{GameID: uint64(*raw.GameID), Player: *raw.Player, BetAmount: *raw.BetAmount}, nil

	case TypeGameFinished:
		var raw struct {
			GameID      *Uint64          `json:"game_id"`
			Winner      *string          `json:"winner"`
			Loser       *string          `json:"loser"`
			PrizeAmount *decimal.Decimal `json:"prize_amount"`
		}
		if err := unmarshal(eventType, data, &raw); err != nil {
			return nil, err
		}
		if err := requireFields(eventType, field{"game_id", raw.GameID != nil}); err != nil {
			return nil, err
		}
		if err := validateGameID(eventType, *raw.GameID); err != nil {
			return nil, err
		}

		finished := &GameFinished{GameID: uint64(*raw.GameID)}
		if raw.Winner != nil {
			finished.Winner = *raw.Winner
		}
		if raw.Loser != nil {
			finished.Loser = *raw.Loser
		}
		if raw.PrizeAmount != nil {
			if err := validateAmount(eventType, "prize_amount", *raw.PrizeAmount); err != nil {
				return nil, err
			}
			finished.PrizeAmount = *raw.PrizeAmount
		}
		if finished.HasWinner() && raw.PrizeAmount == nil {
			return nil, fmt.Errorf("%w: %s missing prize_amount", ErrMalformedPayload, eventType)
		}
		return finished, nil

	default:
		return &Opaque{Type: eventType}, nil
	}
}

type field struct {
	name    string
	present bool
}

func requireFields(eventType string, fields ...field) error {
	var missing []string
	for _, f := range fields {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %s", ErrMalformedPayload, eventType, strings.Join(missing, ", "))
	}
	return nil
}

func unmarshal(eventType string, data json.RawMessage, out any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformedPayload, eventType)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMalformedPayload, eventType, err)
	}
	return nil
}

func validateGameID(eventType string, id Uint64) error {
	if uint64(id) > MaxGameID {
		return fmt.Errorf("%w: %s game_id %d exceeds %d", ErrMalformedPayload, eventType, uint64(id), uint64(MaxGameID))
	}
	return nil
}

func validateAmount(eventType, name string, amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.IsInteger() {
		return fmt.Errorf("%w: %s %s must be a non-negative integer, got %s",
			ErrMalformedPayload, eventType, name, amount.String())
	}
	return nil
}

// Uint64 accepts both JSON numbers and decimal strings, the way the node encodes u64 fields.
type Uint64 uint64

func (u *Uint64) UnmarshalJSON(b []byte) error {
	v, err := common.ParseU64(string(b))
	if err != nil {
		return err
	}
	*u = Uint64(v)
	return nil
}
