package push

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dreamplay/lineup/internal/models"
	"github.com/dreamplay/lineup/internal/store/storetest"
)

func fixedScheduler(f *storetest.Fake, hub *Hub, now time.Time) *Scheduler {
	s := NewScheduler(f, hub, time.Second)
	s.now = func() time.Time { return now }
	return s
}

func recvEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	default:
		t.Fatal("no event broadcast")
		return Event{}
	}
}

func TestCycleBroadcastsDueScrolls(t *testing.T) {
	now := time.Date(2025, 3, 22, 12, 0, 0, 0, time.Local)
	f := storetest.New()
	f.Messages = []models.ScrollingMessage{
		{ID: 1, ScrollingName: "Promo", Script: "New channels this week",
			TimeSchedule: []string{"2025-03-22 12:00:05"}},
		{ID: 2, ScrollingName: "Later", Script: "Not yet",
			TimeSchedule: []string{"2025-03-22 18:00:00"}},
	}
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	fixedScheduler(f, hub, now).cycle(context.Background())

	ev := recvEvent(t, ch)
	assert.Equal(t, EventScrollingPush, ev.Name)
	batch, ok := ev.Payload.(scrollBatch)
	require.True(t, ok)
	assert.True(t, batch.Success)
	require.Len(t, batch.Scrolls, 1)
	assert.Equal(t, "1", batch.Scrolls[0].ScrollID)
	assert.Equal(t, "Promo", batch.Scrolls[0].ScrollingName)
	assert.Equal(t, "2025-03-22 12:00:05", batch.Scrolls[0].TimeSlot)
	assert.Equal(t, 5, batch.Scrolls[0].DisplayTime)
}

func TestCyclePingsWhenNothingDue(t *testing.T) {
	now := time.Date(2025, 3, 22, 12, 0, 0, 0, time.Local)
	f := storetest.New()
	f.Messages = []models.ScrollingMessage{
		{ID: 1, ScrollingName: "Later", TimeSchedule: []string{"2025-03-22 12:01:00"}},
		{ID: 2, ScrollingName: "Broken", TimeSchedule: []string{"noon-ish"}},
	}
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	fixedScheduler(f, hub, now).cycle(context.Background())

	ev := recvEvent(t, ch)
	assert.Equal(t, EventPing, ev.Name)
}

func TestCycleToleranceBoundary(t *testing.T) {
	now := time.Date(2025, 3, 22, 12, 0, 0, 0, time.Local)
	f := storetest.New()
	// Exactly at the edge of the window on both sides.
	f.Messages = []models.ScrollingMessage{
		{ID: 1, TimeSchedule: []string{"2025-03-22 11:59:50", "2025-03-22 12:00:10"}},
	}
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	fixedScheduler(f, hub, now).cycle(context.Background())

	ev := recvEvent(t, ch)
	require.Equal(t, EventScrollingPush, ev.Name)
	batch := ev.Payload.(scrollBatch)
	assert.Len(t, batch.Scrolls, 2)
}

func TestCycleBroadcastsErrorOnStoreLoss(t *testing.T) {
	f := storetest.New()
	f.PingErr = context.DeadlineExceeded
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	fixedScheduler(f, hub, time.Now()).cycle(context.Background())

	ev := recvEvent(t, ch)
	assert.Equal(t, EventError, ev.Name)
}

func TestHubSubscribeCancel(t *testing.T) {
	hub := NewHub()
	ch1, cancel1 := hub.Subscribe()
	ch2, cancel2 := hub.Subscribe()
	assert.Equal(t, 2, hub.SubscriberCount())

	hub.Broadcast(Event{Name: EventPing})
	assert.Equal(t, EventPing, recvEvent(t, ch1).Name)
	assert.Equal(t, EventPing, recvEvent(t, ch2).Name)

	cancel1()
	cancel1() // double cancel is safe
	assert.Equal(t, 1, hub.SubscriberCount())

	// Closed channel no longer receives broadcasts.
	_, open := <-ch1
	assert.False(t, open)

	cancel2()
	assert.Equal(t, 0, hub.SubscriberCount())
}

func TestBroadcastDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe()
	defer cancel()

	for i := 0; i < 32; i++ {
		hub.Broadcast(Event{Name: EventPing})
	}
	// Buffered capacity is drained without ever having blocked the sender.
	n := 0
	for {
		select {
		case <-ch:
			n++
			continue
		default:
		}
		break
	}
	assert.Equal(t, 16, n)
}
