package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopLogger struct{}

func (noopLogger) Debug(msg string, fields ...interface{}) {}
func (noopLogger) Info(msg string, fields ...interface{})  {}
func (noopLogger) Warn(msg string, fields ...interface{})  {}
func (noopLogger) Error(msg string, fields ...interface{}) {}

func startTestBus(t *testing.T, storage EventStorage) EventBus {
	t.Helper()

	config := EventBusConfig{
		BufferSize:        16,
		EnablePersistence: storage != nil,
	}
	bus := NewEventBus(config, noopLogger{}, storage)
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		bus.Stop(ctx)
	})
	return bus
}

func TestEventBus_PublishBeforeStart(t *testing.T) {
	bus := NewEventBus(DefaultEventBusConfig(), noopLogger{}, nil)

	err := bus.Publish(context.Background(), NewEvent(EventInfo, "test", "t", "m"))
	assert.ErrorContains(t, err, "not running")
	assert.Error(t, bus.Health())
}

func TestEventBus_StartTwice(t *testing.T) {
	bus := startTestBus(t, nil)
	assert.ErrorContains(t, bus.Start(context.Background()), "already running")
}

func TestEventBus_PublishValidation(t *testing.T) {
	bus := startTestBus(t, nil)
	ctx := context.Background()

	err := bus.Publish(ctx, Event{Source: "test"})
	assert.ErrorContains(t, err, "event type is required")

	err = bus.Publish(ctx, Event{Type: EventInfo})
	assert.ErrorContains(t, err, "event source is required")
}

func TestEventBus_SubscribeReceivesMatching(t *testing.T) {
	bus := startTestBus(t, nil)
	ctx := context.Background()

	received := make(chan Event, 4)
	sub, err := bus.Subscribe(ctx, EventFilter{
		Types: []EventType{EventScanCompleted},
	}, func(event Event) error {
		received <- event
		return nil
	})
	require.NoError(t, err)
	require.NotEmpty(t, sub.ID)

	require.NoError(t, bus.Publish(ctx, NewEvent(EventScanStarted, "scanner", "started", "")))
	require.NoError(t, bus.Publish(ctx, NewEvent(EventScanCompleted, "scanner", "done", "")))

	select {
	case event := <-received:
		assert.Equal(t, EventScanCompleted, event.Type)
		assert.NotEmpty(t, event.ID)
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the event")
	}

	select {
	case event := <-received:
		t.Fatalf("unexpected event delivered: %s", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := startTestBus(t, nil)

	sub, err := bus.Subscribe(context.Background(), EventFilter{}, func(Event) error { return nil })
	require.NoError(t, err)
	require.Len(t, bus.GetSubscriptions(), 1)

	require.NoError(t, bus.Unsubscribe(sub.ID))
	assert.Empty(t, bus.GetSubscriptions())

	assert.ErrorContains(t, bus.Unsubscribe(sub.ID), "subscription not found")
}

func TestEventBus_Stats(t *testing.T) {
	bus := startTestBus(t, nil)
	ctx := context.Background()

	require.NoError(t, bus.Publish(ctx, NewEvent(EventScanStarted, "scanner", "", "")))
	require.NoError(t, bus.Publish(ctx, NewEvent(EventScanCompleted, "scanner", "", "")))
	require.NoError(t, bus.Publish(ctx, NewEvent(EventShareCreated, "sharemodule", "", "")))

	assert.Eventually(t, func() bool {
		return bus.GetStats().TotalEvents == 3
	}, time.Second, 10*time.Millisecond)

	stats := bus.GetStats()
	assert.Equal(t, int64(2), stats.EventsBySource["scanner"])
	assert.Equal(t, int64(1), stats.EventsByType[string(EventShareCreated)])
	assert.Len(t, stats.RecentEvents, 3)
}

func TestEventBus_PersistsToStorage(t *testing.T) {
	storage := NewMemoryEventStorage()
	bus := startTestBus(t, storage)
	ctx := context.Background()

	require.NoError(t, bus.PublishAsync(NewEvent(EventScanCompleted, "scanner", "done", "")))

	assert.Eventually(t, func() bool {
		count, err := storage.Count(ctx)
		return err == nil && count == 1
	}, time.Second, 10*time.Millisecond)

	stored, total, err := bus.GetEvents(EventFilter{Types: []EventType{EventScanCompleted}}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, stored, 1)
	assert.Equal(t, "done", stored[0].Title)

	require.NoError(t, bus.ClearEvents(ctx))
	count, err := storage.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStorage_FilterAndPagination(t *testing.T) {
	storage := NewMemoryEventStorage()
	ctx := context.Background()

	base := time.Now()
	for i, eventType := range []EventType{EventScanStarted, EventScanCompleted, EventScanStarted} {
		event := NewEvent(eventType, "scanner", "", "")
		event.ID = string(rune('a' + i))
		event.Timestamp = base.Add(time.Duration(i) * time.Second)
		require.NoError(t, storage.Store(ctx, event))
	}

	events, total, err := storage.Get(ctx, EventFilter{Types: []EventType{EventScanStarted}}, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, events, 1)
	assert.Equal(t, "c", events[0].ID, "newest first")

	events, _, err = storage.Get(ctx, EventFilter{Types: []EventType{EventScanStarted}}, 1, 1)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "a", events[0].ID)
}

func TestMatchesFilter_Priority(t *testing.T) {
	event := NewEvent(EventError, "scanner", "", "")
	event.Priority = PriorityHigh

	high := PriorityHigh
	critical := PriorityCritical
	assert.True(t, MatchesFilter(event, EventFilter{Priority: &high}))
	assert.False(t, MatchesFilter(event, EventFilter{Priority: &critical}))
	assert.True(t, MatchesFilter(event, EventFilter{Sources: []string{"scanner"}}))
	assert.False(t, MatchesFilter(event, EventFilter{Sources: []string{"other"}}))
}
