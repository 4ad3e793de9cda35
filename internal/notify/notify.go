package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
	"github.com/redis/go-redis/v9"
)

// GameUpdate is the message published whenever an indexed transaction touches a game.
type GameUpdate struct {
	GameID             uint64  `json:"game_id"`
	State              int     `json:"state"`
	BetTier            int     `json:"bet_tier"`
	Player1Address     string  `json:"player1_address"`
	Player2Address     *string `json:"player2_address"`
	WinnerAddress      *string `json:"winner_address"`
	EventType          string  `json:"event_type"`
	TransactionVersion uint64  `json:"transaction_version"`
}

// Publisher delivers game updates to subscribers.
type Publisher interface {
	PublishGameUpdate(ctx context.Context, update GameUpdate) error
}

// NopPublisher drops every update.
type NopPublisher struct{}

func (NopPublisher) PublishGameUpdate(context.Context, GameUpdate) error { return nil }

var (
	_ Publisher = NopPublisher{}
	_ Publisher = (*RedisPublisher)(nil)
)

// RedisPublisher publishes game updates as JSON on a redis pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
	log     *logger.Logger
}

// NewRedisPublisher creates a publisher writing to channel.
func NewRedisPublisher(client redis.UniversalClient, channel string, log *logger.Logger) *RedisPublisher {
	return &RedisPublisher{
		client:  client,
		channel: channel,
		log:     log.WithComponent(common.ComponentNotifier),
	}
}

// NewPublisher returns a RedisPublisher when notifications are enabled, otherwise a NopPublisher.
func NewPublisher(cfg *config.NotifyConfig, client redis.UniversalClient, log *logger.Logger) Publisher {
	if cfg == nil || !cfg.Enabled || client == nil {
		return NopPublisher{}
	}
	return NewRedisPublisher(client, cfg.Channel, log)
}

// PublishGameUpdate marshals the update and publishes it on the configured channel.
func (p *RedisPublisher) PublishGameUpdate(ctx context.Context, update GameUpdate) error {
	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal game update: %w", err)
	}

	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return fmt.Errorf("failed to publish game %d update: %w", update.GameID, err)
	}

	p.log.Debugw("published game update",
		"game_id", update.GameID,
		"event_type", update.EventType,
		"receivers", receivers)

	return nil
}

// Channel returns the pub/sub channel updates are published on.
func (p *RedisPublisher) Channel() string {
	return p.channel
}
