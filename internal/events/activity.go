package events

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/example/rolo/internal/models"
)

// ActivityLimit caps each rider's activity list.
const ActivityLimit = 50

// StatusKey is the hash holding the latest projected status of a ride.
func StatusKey(rideID string) string { return "ride:status:" + rideID }

// ActivityKey is the newest-first list of a rider's ride events.
func ActivityKey(userID string) string { return "activity:" + userID }

// ActivityFeed reads the activity lists written by the event consumer.
type ActivityFeed struct {
	client *redis.Client
}

func NewActivityFeed(client *redis.Client) *ActivityFeed {
	return &ActivityFeed{client: client}
}

// Recent returns up to n of the rider's latest events, newest first.
// Entries that fail to decode are skipped.
func (a *ActivityFeed) Recent(ctx context.Context, userID string, n int) ([]models.RideEvent, error) {
	if n <= 0 || n > ActivityLimit {
		n = ActivityLimit
	}
	raw, err := a.client.LRange(ctx, ActivityKey(userID), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.RideEvent, 0, len(raw))
	for _, s := range raw {
		var e models.RideEvent
		if json.Unmarshal([]byte(s), &e) == nil {
			out = append(out, e)
		}
	}
	return out, nil
}
