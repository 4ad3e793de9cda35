package indexer

import "errors"

// Rejection reasons. An event failing with one of these is recorded in the
// event log but does not change games or players.
var (
	// ErrGameNotFound is returned when an event refers to a game that was never created.
	ErrGameNotFound = errors.New("game not found")

	// ErrInvalidTransition is returned when an event does not follow the game's current state.
	ErrInvalidTransition = errors.New("invalid game state transition")

	// ErrDuplicateGame is returned when a game is created with an id that is already in use.
	ErrDuplicateGame = errors.New("game already exists")
)

// rejectReason maps an apply error to the metric label of a rejected event.
// It returns false for errors that must abort the cycle.
func rejectReason(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found", true
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition", true
	case errors.Is(err, ErrDuplicateGame):
		return "duplicate_game", true
	default:
		return "", false
	}
}
