package api

import (
	"time"

	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
)

// GamesResponse is a list of games.
// @Description A list of games
type GamesResponse struct {
	Games []*store.Game `json:"games"`
}

// PlayersResponse is a ranked list of players.
// @Description Players ordered by total winnings
type PlayersResponse struct {
	Players []*store.Player `json:"players"`
}

// EventResponse is one page of the event log.
// @Description A page of indexed events
type EventResponse struct {
	Events     []*store.EventLogEntry `json:"events"`
	Pagination PaginationResult       `json:"pagination"`
}

// PaginationResult contains pagination metadata.
type PaginationResult struct {
	Total   int  `json:"total" example:"120"`
	Limit   int  `json:"limit" example:"50"`
	Offset  int  `json:"offset" example:"0"`
	HasMore bool `json:"has_more" example:"true"`
}

// RunResponse is returned by a successful on-demand indexing cycle.
// @Description Outcome of an on-demand indexing cycle
type RunResponse struct {
	Success     bool   `json:"success" example:"true"`
	Processed   int    `json:"processed" example:"3"`
	LastVersion uint64 `json:"lastVersion" example:"103"`
}

// IndexerStateResponse describes the indexer watermark.
// @Description Indexer watermark and cycle status
type IndexerStateResponse struct {
	LastProcessedVersion uint64     `json:"last_processed_version" example:"103"`
	LastSyncAt           *time.Time `json:"last_sync_at"`
	CycleRunning         bool       `json:"cycle_running" example:"false"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error" example:"Bad Request"`
	Message string `json:"message,omitempty" example:"invalid limit: must be between 1 and 100"`
	Code    int    `json:"code" example:"400"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status               string    `json:"status" example:"ok"`
	Timestamp            time.Time `json:"timestamp"`
	LastProcessedVersion uint64    `json:"last_processed_version" example:"103"`
}
