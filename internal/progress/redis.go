// internal/progress/redis.go
package progress

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"zapdispatch/internal/model"
)

const channelPrefix = "campaign.events."

// RedisChannel publishes and subscribes campaign progress through Redis
// pub/sub, one channel per campaign id. Publish failures are logged and
// dropped: progress is a UI concern and must not stall the dispatch loop.
type RedisChannel struct {
	rdb *redis.Client
	log *logrus.Entry
}

func NewRedisChannel(rdb *redis.Client, logger *logrus.Logger) *RedisChannel {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisChannel{
		rdb: rdb,
		log: logger.WithField("component", "progress"),
	}
}

func (r *RedisChannel) CampaignChanged(ctx context.Context, c *model.Campaign) {
	r.publish(ctx, Event{
		CampaignID: c.ID,
		Kind:       EventCampaign,
		Campaign:   c,
		At:         time.Now().UTC(),
	})
}

func (r *RedisChannel) MessageChanged(ctx context.Context, m *model.CampaignMessage) {
	r.publish(ctx, Event{
		CampaignID: m.CampaignID,
		Kind:       EventMessage,
		Message:    m,
		At:         time.Now().UTC(),
	})
}

func (r *RedisChannel) publish(ctx context.Context, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.log.WithError(err).Warn("drop progress event: encode failed")
		return
	}
	if err := r.rdb.Publish(ctx, channelPrefix+ev.CampaignID, payload).Err(); err != nil {
		r.log.WithError(err).WithField("campaign_id", ev.CampaignID).Warn("drop progress event: publish failed")
	}
}

// Subscribe delivers decoded events until ctx ends or cancel is called.
func (r *RedisChannel) Subscribe(ctx context.Context, campaignID string) (<-chan Event, func()) {
	sub := r.rdb.Subscribe(ctx, channelPrefix+campaignID)
	out := make(chan Event, 16)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.log.WithError(err).Warn("skip malformed progress event")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, func() { _ = sub.Close() }
}

var (
	_ Publisher  = (*RedisChannel)(nil)
	_ Subscriber = (*RedisChannel)(nil)
)
