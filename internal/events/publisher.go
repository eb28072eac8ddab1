// Package events keeps a per-master "last event" record in Redis and lets
// the streaming endpoint poll it. Delivery is not guaranteed: only the
// latest event is retained, and it ages out after a short TTL. Clients that
// miss an event reconcile through their next schedule fetch.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Actions carried by schedule events.
const (
	ActionSlotBooked = "slot_booked"
	ActionSlotFreed  = "slot_freed"
)

// Event is the payload pushed to schedule viewers.
type Event struct {
	EventID     int64  `json:"event_id"`
	Action      string `json:"action"`
	MasterID    int    `json:"master_id"`
	SlotID      int    `json:"slot_id"`
	Date        string `json:"date"`
	PublishedAt string `json:"published_at"`
}

func lastEventKey(masterID int) string {
	return fmt.Sprintf("last_event:schedule:%d", masterID)
}

// Publisher overwrites the last-event record of a master on each publish.
type Publisher struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewPublisher creates a Publisher. A zero ttl defaults to 60 seconds.
func NewPublisher(rdb *redis.Client, ttl time.Duration) *Publisher {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Publisher{rdb: rdb, ttl: ttl, now: time.Now}
}

// SlotBooked records that a slot was just reserved.
func (p *Publisher) SlotBooked(ctx context.Context, masterID, slotID int, date string) error {
	return p.publish(ctx, masterID, Event{Action: ActionSlotBooked, MasterID: masterID, SlotID: slotID, Date: date})
}

// SlotFreed records that a slot was just released.
func (p *Publisher) SlotFreed(ctx context.Context, masterID, slotID int, date string) error {
	return p.publish(ctx, masterID, Event{Action: ActionSlotFreed, MasterID: masterID, SlotID: slotID, Date: date})
}

func (p *Publisher) publish(ctx context.Context, masterID int, ev Event) error {
	now := p.now()
	ev.EventID = now.UnixMilli()
	ev.PublishedAt = now.UTC().Format("2006-01-02 15:04:05")

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.rdb.Set(ctx, lastEventKey(masterID), data, p.ttl).Err()
}

// Reader polls the last-event record for a master.
type Reader struct {
	rdb *redis.Client
}

// NewReader creates a Reader.
func NewReader(rdb *redis.Client) *Reader {
	return &Reader{rdb: rdb}
}

// Last returns the most recent event of a master, or (nil, nil) when no
// unexpired event exists.
func (r *Reader) Last(ctx context.Context, masterID int) (*Event, error) {
	data, err := r.rdb.Get(ctx, lastEventKey(masterID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
