package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/events"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/internal/scheduler"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/indexer"
)

const maxLimit = store.MaxLimit

// GameQueries defines the read model queries served by the API.
type GameQueries interface {
	AvailableGames(ctx context.Context, tier int, limit int) ([]*store.Game, error)
	GameByID(ctx context.Context, gameID uint64) (*store.Game, error)
	PlayerGames(ctx context.Context, address string, filter store.PlayerGamesFilter) ([]*store.Game, error)
	PlayerStats(ctx context.Context, address string) (*store.Player, error)
	Leaderboard(ctx context.Context, limit int) ([]*store.Player, error)
	MatchHistory(ctx context.Context, limit int) ([]*store.Game, error)
	Events(ctx context.Context, filter store.EventFilter) ([]*store.EventLogEntry, error)
	CountEvents(ctx context.Context, filter store.EventFilter) (int, error)
}

// StateReader exposes the indexer watermark.
type StateReader interface {
	GetState(ctx context.Context) (*store.IndexerState, error)
}

// CycleTrigger runs indexing cycles on demand.
type CycleTrigger interface {
	Trigger(ctx context.Context) (indexer.CycleResult, error)
	Running() bool
}

// Handler handles HTTP requests for the API.
type Handler struct {
	games   GameQueries
	state   StateReader
	trigger CycleTrigger
	log     *logger.Logger
}

// NewHandler creates a new API handler. trigger may be nil, in which case
// the run endpoint answers 503.
func NewHandler(games GameQueries, state StateReader, trigger CycleTrigger, log *logger.Logger) *Handler {
	return &Handler{
		games:   games,
		state:   state,
		trigger: trigger,
		log:     log,
	}
}

// Health returns the health status of the API and the current watermark.
// @Summary Health check
// @Description Check that the API can reach the database and report the watermark
// @Tags Health
// @Produce json
// @Success 200 {object} HealthResponse "API health status"
// @Failure 503 {object} ErrorResponse "Database unavailable"
// @Router /health [get]
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.GetState(r.Context())
	if err != nil {
		h.log.Errorf("health check failed: %v", err)
		respondError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}

	response := HealthResponse{Status: "ok", Timestamp: time.Now().UTC()}
	if state != nil {
		response.LastProcessedVersion = state.LastProcessedVersion
	}

	respondJSON(w, http.StatusOK, response)
}

// AvailableGames lists waiting games.
// @Summary List open games
// @Description Games waiting for a second player, newest first
// @Tags Games
// @Produce json
// @Param tier query int false "Bet tier (1-4)"
// @Param limit query int false "Maximum number of games" default(100)
// @Success 200 {object} GamesResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /games/available [get]
func (h *Handler) AvailableGames(w http.ResponseWriter, r *http.Request) {
	tier, err := parseIntParam(r, "tier", 0, 1, 4) //nolint:mnd
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := parseLimit(r, maxLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	games, err := h.games.AvailableGames(r.Context(), tier, limit)
	if err != nil {
		h.log.Errorf("failed to query available games: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query available games")
		return
	}

	respondJSON(w, http.StatusOK, GamesResponse{Games: nonNil(games)})
}

// GetGame returns a single game.
// @Summary Get a game
// @Tags Games
// @Produce json
// @Param id path int true "On-chain game id"
// @Success 200 {object} store.Game
// @Failure 400 {object} ErrorResponse "Invalid game id"
// @Failure 404 {object} ErrorResponse "Game not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /games/{id} [get]
func (h *Handler) GetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid game id")
		return
	}
	if gameID > events.MaxGameID {
		respondError(w, http.StatusNotFound, fmt.Sprintf("game %d not found", gameID))
		return
	}

	game, err := h.games.GameByID(r.Context(), gameID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("game %d not found", gameID))
		return
	}
	if err != nil {
		h.log.Errorf("failed to get game %d: %v", gameID, err)
		respondError(w, http.StatusInternalServerError, "failed to get game")
		return
	}

	respondJSON(w, http.StatusOK, game)
}

// MatchHistory lists recently finished games that have a winner.
// @Summary Match history
// @Tags Games
// @Produce json
// @Param limit query int false "Maximum number of games" default(20)
// @Success 200 {object} GamesResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /games/history [get]
func (h *Handler) MatchHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, store.DefaultHistoryLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	games, err := h.games.MatchHistory(r.Context(), limit)
	if err != nil {
		h.log.Errorf("failed to query match history: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query match history")
		return
	}

	respondJSON(w, http.StatusOK, GamesResponse{Games: nonNil(games)})
}

// PlayerStats returns the statistics of an address.
// @Summary Player statistics
// @Description Unknown addresses return zeroed statistics
// @Tags Players
// @Produce json
// @Param address path string true "Player address"
// @Success 200 {object} store.Player
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /players/{address} [get]
func (h *Handler) PlayerStats(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	player, err := h.games.PlayerStats(r.Context(), address)
	if err != nil {
		h.log.Errorf("failed to get stats of %s: %v", address, err)
		respondError(w, http.StatusInternalServerError, "failed to get player stats")
		return
	}

	respondJSON(w, http.StatusOK, player)
}

// PlayerGames lists the games of an address.
// @Summary Player games
// @Tags Players
// @Produce json
// @Param address path string true "Player address"
// @Param created query bool false "Only games created by the address"
// @Param active query bool false "Only waiting and joined games"
// @Param limit query int false "Maximum number of games"
// @Success 200 {object} GamesResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /players/{address}/games [get]
func (h *Handler) PlayerGames(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")

	var (
		filter store.PlayerGamesFilter
		err    error
	)
	if filter.CreatedOnly, err = parseBoolParam(r, "created"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.ActiveOnly, err = parseBoolParam(r, "active"); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.Limit, err = parseLimit(r, 0); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	games, err := h.games.PlayerGames(r.Context(), address, filter)
	if err != nil {
		h.log.Errorf("failed to query games of %s: %v", address, err)
		respondError(w, http.StatusInternalServerError, "failed to query player games")
		return
	}

	respondJSON(w, http.StatusOK, GamesResponse{Games: nonNil(games)})
}

// Leaderboard ranks players by total winnings.
// @Summary Leaderboard
// @Tags Players
// @Produce json
// @Param limit query int false "Maximum number of players" default(10)
// @Success 200 {object} PlayersResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /leaderboard [get]
func (h *Handler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r, store.DefaultLeaderboardLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	players, err := h.games.Leaderboard(r.Context(), limit)
	if err != nil {
		h.log.Errorf("failed to query leaderboard: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query leaderboard")
		return
	}

	respondJSON(w, http.StatusOK, PlayersResponse{Players: nonNil(players)})
}

// GetEvents pages through the event log.
// @Summary Event log
// @Tags Events
// @Produce json
// @Param game_id query int false "Filter by game id"
// @Param event_type query string false "Filter by event type, e.g. GameCreatedEvent"
// @Param limit query int false "Maximum number of events" default(50)
// @Param offset query int false "Number of events to skip" default(0)
// @Success 200 {object} EventResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEventFilter(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid query parameters: %v", err))
		return
	}

	events, err := h.games.Events(r.Context(), filter)
	if err != nil {
		h.log.Errorf("failed to query events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	total, err := h.games.CountEvents(r.Context(), filter)
	if err != nil {
		h.log.Errorf("failed to count events: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to query events")
		return
	}

	respondJSON(w, http.StatusOK, EventResponse{
		Events: nonNil(events),
		Pagination: PaginationResult{
			Total:   total,
			Limit:   filter.Limit,
			Offset:  filter.Offset,
			HasMore: filter.Offset+len(events) < total,
		},
	})
}

// IndexerState returns the watermark.
// @Summary Indexer state
// @Tags Indexer
// @Produce json
// @Success 200 {object} IndexerStateResponse
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /indexer/state [get]
func (h *Handler) IndexerState(w http.ResponseWriter, r *http.Request) {
	state, err := h.state.GetState(r.Context())
	if err != nil {
		h.log.Errorf("failed to get indexer state: %v", err)
		respondError(w, http.StatusInternalServerError, "failed to get indexer state")
		return
	}

	var response IndexerStateResponse
	if state != nil {
		response.LastProcessedVersion = state.LastProcessedVersion
		response.LastSyncAt = state.LastSyncAt
	}
	if h.trigger != nil {
		response.CycleRunning = h.trigger.Running()
	}

	respondJSON(w, http.StatusOK, response)
}

// RunIndexer runs one indexing cycle and reports its outcome.
// @Summary Run an indexing cycle
// @Description Fetch the latest page of contract transactions and apply them
// @Tags Indexer
// @Produce json
// @Success 200 {object} RunResponse
// @Failure 409 {object} ErrorResponse "A cycle is already running"
// @Failure 500 {object} ErrorResponse "Cycle failed"
// @Failure 503 {object} ErrorResponse "Indexing is not available in this process"
// @Router /indexer/run [post]
func (h *Handler) RunIndexer(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		respondError(w, http.StatusServiceUnavailable, "indexing is not available")
		return
	}

	result, err := h.trigger.Trigger(r.Context())
	switch {
	case errors.Is(err, scheduler.ErrCycleInProgress):
		respondJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error(), Code: http.StatusConflict})
		return
	case err != nil:
		h.log.Errorf("on-demand indexing cycle failed: %v", err)
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: http.StatusInternalServerError})
		return
	}

	respondJSON(w, http.StatusOK, RunResponse{
		Success:     true,
		Processed:   result.Processed,
		LastVersion: result.LastVersion,
	})
}

// parseLimit reads the limit query parameter. def is returned when it is absent.
func parseLimit(r *http.Request, def int) (int, error) {
	limitStr := r.URL.Query().Get("limit")
	if limitStr == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("invalid limit: must be between 1 and %d", maxLimit)
	}
	return limit, nil
}

func parseIntParam(r *http.Request, name string, def, minVal, maxVal int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}

	v, err := strconv.Atoi(raw)
	if err != nil || v < minVal || v > maxVal {
		return 0, fmt.Errorf("invalid %s: must be between %d and %d", name, minVal, maxVal)
	}
	return v, nil
}

func parseBoolParam(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: must be a boolean", name)
	}
	return v, nil
}

// parseEventFilter parses HTTP query parameters into an event log filter.
func parseEventFilter(r *http.Request) (store.EventFilter, error) {
	filter := store.EventFilter{Limit: store.DefaultEventsLimit}

	if gameIDStr := r.URL.Query().Get("game_id"); gameIDStr != "" {
		gameID, err := strconv.ParseUint(gameIDStr, 10, 64)
		if err != nil || gameID > events.MaxGameID {
			return filter, fmt.Errorf("invalid game_id")
		}
		filter.GameID = &gameID
	}

	filter.EventType = r.URL.Query().Get("event_type")

	limit, err := parseLimit(r, store.DefaultEventsLimit)
	if err != nil {
		return filter, err
	}
	filter.Limit = limit

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filter, fmt.Errorf("invalid offset: must be non-negative")
		}
		filter.Offset = offset
	}

	return filter, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")

	// encode first so a failure can still change the status
	encoded, err := json.Marshal(data)
	if err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
