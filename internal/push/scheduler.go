package push

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/store"
)

// Event names emitted by the scheduler.
const (
	EventScrollingPush = "scrollingPush"
	EventPing          = "ping"
	EventError         = "error"
)

// DefaultInterval is the cadence between schedule checks; DefaultTolerance
// is how far a slot may be from now and still fire.
const (
	DefaultInterval  = 10 * time.Second
	DefaultTolerance = 10 * time.Second
)

// scrollBatch is the payload broadcast when slots match.
type scrollBatch struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Scrolls []models.ScrollPush `json:"scrolls"`
}

// Scheduler periodically re-reads all scrolling messages and broadcasts the
// ones whose schedule slots fall within the tolerance window of now. It is
// decoupled from any single connection: subscribers come and go on the Hub,
// and the scheduler runs until its context is cancelled.
type Scheduler struct {
	store     store.Store
	hub       *Hub
	interval  time.Duration
	tolerance time.Duration
	now       func() time.Time
}

// NewScheduler creates a Scheduler broadcasting to hub on the given cadence.
// Non-positive interval or tolerance fall back to the defaults.
func NewScheduler(s store.Store, hub *Hub, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		store:     s,
		hub:       hub,
		interval:  interval,
		tolerance: DefaultTolerance,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled, checking the schedule each interval.
// Store connectivity is re-checked each cycle; on loss an error event is
// broadcast so streaming handlers can terminate their connections, and the
// scheduler keeps running to recover when the store comes back.
func (s *Scheduler) Run(ctx context.Context) {
	log.Printf("push scheduler started (interval %s)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("push scheduler stopping")
			return
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Scheduler) cycle(ctx context.Context) {
	if err := s.store.Ping(ctx); err != nil {
		s.hub.Broadcast(Event{Name: EventError, Payload: map[string]any{
			"success": false,
			"message": fmt.Sprintf("store connection lost: %v", err),
		}})
		return
	}

	msgs, err := s.store.ListScrollingMessages(ctx)
	if err != nil {
		s.hub.Broadcast(Event{Name: EventError, Payload: map[string]any{
			"success": false,
			"message": fmt.Sprintf("read scrolling messages: %v", err),
		}})
		return
	}

	now := s.now()
	scrolls := s.due(msgs, now)
	if len(scrolls) == 0 {
		s.hub.Broadcast(Event{Name: EventPing, Payload: map[string]any{
			"message": "No scrolling messages scheduled for " + now.Format(models.TimeFormat),
		}})
		return
	}
	s.hub.Broadcast(Event{Name: EventScrollingPush, Payload: scrollBatch{
		Success: true,
		Message: "Scrolling data for current time",
		Scrolls: scrolls,
	}})
}

// due collects every message slot within the tolerance window of now.
// Unparseable slots are skipped.
func (s *Scheduler) due(msgs []models.ScrollingMessage, now time.Time) []models.ScrollPush {
	var scrolls []models.ScrollPush
	for _, m := range msgs {
		for _, slot := range m.TimeSchedule {
			// Slots are wall-clock server times.
			at, err := time.ParseInLocation(models.TimeFormat, slot, now.Location())
			if err != nil {
				continue
			}
			diff := now.Sub(at)
			if diff < 0 {
				diff = -diff
			}
			if diff <= s.tolerance {
				scrolls = append(scrolls, models.ScrollPush{
					ScrollID:      fmt.Sprint(m.ID),
					ScrollingName: m.ScrollingName,
					Script:        m.Script,
					TimeSlot:      slot,
					DisplayTime:   5,
				})
			}
		}
	}
	return scrolls
}
