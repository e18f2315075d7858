package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	batchSize     = 50
	blockDuration = 2 * time.Second
)

// StreamConsumer relays processed-game records from a Redis stream to the hub
type StreamConsumer struct {
	redis    *redis.Client
	hub      *Hub
	stream   string
	group    string
	consumer string
}

// NewStreamConsumer reads stream as member consumer of group
func NewStreamConsumer(client *redis.Client, hub *Hub, stream, group, consumer string) *StreamConsumer {
	return &StreamConsumer{
		redis:    client,
		hub:      hub,
		stream:   stream,
		group:    group,
		consumer: consumer,
	}
}

// Start consumes until ctx is cancelled
func (sc *StreamConsumer) Start(ctx context.Context) error {
	err := sc.redis.XGroupCreateMkStream(ctx, sc.stream, sc.group, "$").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group on %s: %w", sc.stream, err)
	}
	log.Printf("[ws] ✓ Consuming stream %s as %s/%s", sc.stream, sc.group, sc.consumer)

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := sc.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    sc.group,
			Consumer: sc.consumer,
			Streams:  []string{sc.stream, ">"},
			Count:    batchSize,
			Block:    blockDuration,
		}).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[ws] ⚠️  Stream read error (%s): %v", sc.stream, err)
			time.Sleep(time.Second)
			continue
		}

		for _, s := range streams {
			for _, msg := range s.Messages {
				sc.processMessage(ctx, msg)
			}
		}
	}
}

func (sc *StreamConsumer) processMessage(ctx context.Context, msg redis.XMessage) {
	defer func() {
		if err := sc.redis.XAck(ctx, sc.stream, sc.group, msg.ID).Err(); err != nil {
			log.Printf("[ws] ⚠️  Failed to ack message %s: %v", msg.ID, err)
		}
	}()

	data, ok := msg.Values["data"].(string)
	if !ok {
		log.Printf("[ws] ⚠️  Invalid message format in %s: %v", sc.stream, msg.Values)
		return
	}

	update, err := DecodeUpdate([]byte(data))
	if err != nil {
		log.Printf("[ws] ⚠️  Failed to parse update %s: %v", msg.ID, err)
		return
	}
	sc.hub.Broadcast(update)
}

// DecodeUpdate reads the routing fields of a processed-game record.
func DecodeUpdate(data []byte) (GameUpdate, error) {
	var rec struct {
		Game struct {
			GameID string `json:"game_id"`
			Team1  string `json:"team1"`
			Team2  string `json:"team2"`
		} `json:"game"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return GameUpdate{}, err
	}
	if rec.Game.GameID == "" {
		return GameUpdate{}, errors.New("record has no game id")
	}
	return GameUpdate{
		GameID: rec.Game.GameID,
		Teams:  []string{rec.Game.Team1, rec.Game.Team2},
		Raw:    json.RawMessage(data),
	}, nil
}
