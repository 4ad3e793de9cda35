package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/goran-ethernal/ArcadeIndexor/internal/events"
	"github.com/goran-ethernal/ArcadeIndexor/internal/metrics"
	"github.com/goran-ethernal/ArcadeIndexor/internal/store"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/chain"
)

// eventResult describes what happened to a single event.
type eventResult struct {
	eventType string
	// recorded is false when the event was already in the event log
	recorded bool
	rejected bool
	game     *store.Game
}

// applyEvent records the event in the event log and routes game events to their handler.
// Events already present in the log are skipped. Rejected and malformed events stay
// in the log without touching games or players.
func (g *GameIndexer) applyEvent(
	ctx context.Context,
	tx store.Tx,
	tc txContext,
	index int,
	ev chain.Event,
) (eventResult, error) {
	eventType := events.EventTypeName(ev.Type)
	res := eventResult{eventType: eventType}

	gameID, player := events.LogFields(ev.Data)
	recorded, err := store.InsertEventLog(ctx, tx, &store.EventLogEntry{
		EventType:          eventType,
		GameID:             gameID,
		PlayerAddress:      player,
		Data:               ev.Data,
		TransactionHash:    tc.hash,
		TransactionVersion: tc.version,
		EventIndex:         index,
		CreatedAt:          tc.now,
	})
	if err != nil {
		return res, err
	}
	if !recorded {
		g.log.Debugf("event %d of transaction %s already indexed, skipping", index, tc.hash)
		return res, nil
	}
	res.recorded = true

	payload, err := events.Decode(eventType, ev.Data)
	if err != nil {
		if errors.Is(err, events.ErrMalformedPayload) {
			g.log.Warnf("failed to parse %s at version %d, tx %s: %v", eventType, tc.version, tc.hash, err)
			metrics.EventRejectedInc(eventType, "malformed")
			res.rejected = true
			return res, nil
		}
		return res, err
	}

	if _, ok := payload.(*events.Opaque); !ok && !g.fromConfiguredModule(ev.Type) {
		g.log.Debugf("game event %s emitted outside the configured module", ev.Type)
	}

	var game *store.Game
	switch p := payload.(type) {
	case *events.GameCreated:
		game, err = handleGameCreated(ctx, tx, tc, p)
	case *events.GameJoined:
		game, err = handleGameJoined(ctx, tx, tc, p)
	case *events.GameFinished:
		game, err = handleGameFinished(ctx, tx, tc, p)
	case *events.Opaque:
		g.log.Debugf("ignoring event %s at version %d", eventType, tc.version)
		return res, nil
	default:
		return res, fmt.Errorf("unhandled payload %T", payload)
	}

	if err != nil {
		reason, ok := rejectReason(err)
		if !ok {
			return res, err
		}
		g.log.Warnf("rejected %s at version %d, tx %s: %v", eventType, tc.version, tc.hash, err)
		metrics.EventRejectedInc(eventType, reason)
		res.rejected = true
		return res, nil
	}

	metrics.EventIndexedInc(eventType)
	res.game = game

	return res, nil
}
