package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// SystemEvent is the persisted form of an Event.
type SystemEvent struct {
	ID        uint32    `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"uniqueIndex;not null" json:"event_id"`
	Type      string    `gorm:"not null;index" json:"type"`
	Source    string    `gorm:"not null;index" json:"source"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Data      string    `gorm:"type:text" json:"data"` // JSON-encoded event data
	Priority  int       `gorm:"not null;index" json:"priority"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the table name for SystemEvent
func (SystemEvent) TableName() string {
	return "system_events"
}

// ToEvent converts a SystemEvent to an Event
func (se *SystemEvent) ToEvent() (Event, error) {
	event := Event{
		ID:        se.EventID,
		Type:      EventType(se.Type),
		Source:    se.Source,
		Title:     se.Title,
		Message:   se.Message,
		Priority:  EventPriority(se.Priority),
		Timestamp: se.CreatedAt,
	}

	if se.Data != "" {
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(se.Data), &data); err != nil {
			return event, fmt.Errorf("failed to unmarshal event data: %w", err)
		}
		event.Data = data
	} else {
		event.Data = make(map[string]interface{})
	}

	return event, nil
}

// FromEvent creates a SystemEvent from an Event
func (se *SystemEvent) FromEvent(event Event) error {
	se.EventID = event.ID
	se.Type = string(event.Type)
	se.Source = event.Source
	se.Title = event.Title
	se.Message = event.Message
	se.Priority = int(event.Priority)
	se.CreatedAt = event.Timestamp

	if event.Data != nil {
		dataBytes, err := json.Marshal(event.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal event data: %w", err)
		}
		se.Data = string(dataBytes)
	}

	return nil
}

// databaseEventStorage implements EventStorage using GORM
type databaseEventStorage struct {
	db *gorm.DB
}

// NewDatabaseEventStorage creates a new database event storage
func NewDatabaseEventStorage(db *gorm.DB) EventStorage {
	return &databaseEventStorage{db: db}
}

// Store stores an event in the database
func (s *databaseEventStorage) Store(ctx context.Context, event Event) error {
	var systemEvent SystemEvent
	if err := systemEvent.FromEvent(event); err != nil {
		return fmt.Errorf("failed to convert event: %w", err)
	}

	if err := s.db.WithContext(ctx).Create(&systemEvent).Error; err != nil {
		return fmt.Errorf("failed to store event: %w", err)
	}

	return nil
}

// Get retrieves events based on filter
func (s *databaseEventStorage) Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error) {
	query := s.db.WithContext(ctx).Model(&SystemEvent{})

	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}

	if len(filter.Sources) > 0 {
		query = query.Where("source IN ?", filter.Sources)
	}

	if filter.Priority != nil {
		query = query.Where("priority >= ?", int(*filter.Priority))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var systemEvents []SystemEvent
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&systemEvents).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to retrieve events: %w", err)
	}

	events := make([]Event, 0, len(systemEvents))
	for _, se := range systemEvents {
		event, err := se.ToEvent()
		if err != nil {
			continue // Skip invalid events
		}
		events = append(events, event)
	}

	return events, total, nil
}

// Delete removes events older than the specified duration
func (s *databaseEventStorage) Delete(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().Add(-olderThan)

	result := s.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&SystemEvent{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete old events: %w", result.Error)
	}

	return nil
}

// DeleteAllEvents removes all events from the database
func (s *databaseEventStorage) DeleteAllEvents(ctx context.Context) error {
	result := s.db.WithContext(ctx).Exec("DELETE FROM system_events")
	if result.Error != nil {
		return fmt.Errorf("failed to delete all events: %w", result.Error)
	}

	return nil
}

// Count returns the total number of stored events
func (s *databaseEventStorage) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&SystemEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// Close closes the storage (no-op for database storage)
func (s *databaseEventStorage) Close() error {
	return nil
}

// memoryEventStorage implements EventStorage in memory (for tests or
// persistence-free deployments)
type memoryEventStorage struct {
	events []Event
	mutex  sync.RWMutex
}

// NewMemoryEventStorage creates a new in-memory event storage
func NewMemoryEventStorage() EventStorage {
	return &memoryEventStorage{events: make([]Event, 0)}
}

func (s *memoryEventStorage) Store(ctx context.Context, event Event) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.events = append(s.events, event)
	return nil
}

func (s *memoryEventStorage) Get(ctx context.Context, filter EventFilter, limit, offset int) ([]Event, int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	filtered := FilterEvents(s.events, filter)
	total := int64(len(filtered))

	// Newest first
	sortEventsByTimestampDesc(filtered)

	start := offset
	end := offset + limit

	if start >= len(filtered) {
		return []Event{}, total, nil
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return filtered[start:end], total, nil
}

func (s *memoryEventStorage) Delete(ctx context.Context, olderThan time.Duration) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	cutoff := time.Now().Add(-olderThan)

	var kept []Event
	for _, event := range s.events {
		if event.Timestamp.After(cutoff) {
			kept = append(kept, event)
		}
	}

	s.events = kept
	return nil
}

func (s *memoryEventStorage) DeleteAllEvents(ctx context.Context) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.events = make([]Event, 0)
	return nil
}

func (s *memoryEventStorage) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return int64(len(s.events)), nil
}

func (s *memoryEventStorage) Close() error {
	return nil
}

func sortEventsByTimestampDesc(events []Event) {
	for i := 0; i < len(events)-1; i++ {
		for j := i + 1; j < len(events); j++ {
			if events[i].Timestamp.Before(events[j].Timestamp) {
				events[i], events[j] = events[j], events[i]
			}
		}
	}
}
