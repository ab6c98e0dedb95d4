package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"spaces/internal/models"
	"spaces/internal/utils"
)

// Channel carries space lifecycle events for external observers.
const Channel = "spaces:events"

// Publisher pushes space lifecycle events onto a Redis channel. A nil
// Publisher is valid and publishes nothing, so the registry can be wired the
// same way whether or not REDIS_ADDR is configured.
type Publisher struct {
	rdb *redis.Client
	log *utils.Logger
}

func NewPublisher(redisAddr string, log *utils.Logger) *Publisher {
	if redisAddr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return &Publisher{rdb: rdb, log: log}
}

// Publish sends the event as JSON. Best-effort: failures are logged and
// dropped, nothing in the coordinator waits on delivery.
func (p *Publisher) Publish(event models.SpaceEvent) {
	if p == nil {
		return
	}
	event.Timestamp = time.Now()
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshal space event", "type", event.Type, "error", err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.rdb.Publish(ctx, Channel, data).Err(); err != nil {
		p.log.Warn("publish space event", "type", event.Type, "spaceId", event.SpaceID, "error", err.Error())
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.rdb.Close()
}
