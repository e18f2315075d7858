package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/stintstats/internal/pipeline"
	"github.com/fortuna/stintstats/internal/reconciliation"
)

const (
	// GamesStream carries one record per processed game.
	GamesStream = "games.stints.basketball"

	// EventGameProcessed is the type of GamesStream records.
	EventGameProcessed = "game.processed"

	streamMaxLen = 10000
)

// GameProcessed summarizes a stored game for stream consumers.
type GameProcessed struct {
	Type           string              `json:"type"`
	Game           pipeline.GameRecord `json:"game"`
	Stints         [2]int              `json:"stints"`
	Warnings       int                 `json:"warnings"`
	Reconciliation string              `json:"reconciliation,omitempty"`
	ProcessedAt    time.Time           `json:"processed_at"`
}

// NewGameProcessed builds the stream record for a result. report may be nil.
func NewGameProcessed(res *pipeline.Result, report *reconciliation.Report, warnings int) GameProcessed {
	ev := GameProcessed{
		Type:        EventGameProcessed,
		Game:        res.Game,
		Warnings:    warnings,
		ProcessedAt: time.Now().UTC(),
	}
	for i, set := range res.Sets {
		if set != nil {
			ev.Stints[i] = set.Len()
		}
	}
	if report != nil {
		ev.Reconciliation = string(report.Status)
	}
	return ev
}

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		stream: GamesStream,
	}
}

// PublishGameProcessed appends a processed game to the games stream
func (rsp *RedisStreamPublisher) PublishGameProcessed(ctx context.Context, event GameProcessed) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: rsp.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data":      string(data),
			"timestamp": time.Now().Unix(),
		},
	}).Err()
}
