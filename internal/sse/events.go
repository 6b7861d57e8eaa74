// Package sse implements Server-Sent Events so open book tables can refresh
// when the catalog is reloaded or re-sorted.
package sse

import (
	"time"

	"github.com/listenupapp/booktable/internal/booktable"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventCatalogReloaded is sent after a new payload replaced the book list.
	EventCatalogReloaded EventType = "catalog.reloaded"
	// EventCatalogSorted is sent after the book list was reordered.
	EventCatalogSorted EventType = "catalog.sorted"
	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// CatalogEventData is the data payload for catalog events.
type CatalogEventData struct {
	SortKey string `json:"sort_key,omitempty"`
	Count   int    `json:"count"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewCatalogEvent converts a controller change into an event.
func NewCatalogEvent(change booktable.Change) Event {
	eventType := EventCatalogReloaded
	if change.Kind == booktable.ChangeSorted {
		eventType = EventCatalogSorted
	}
	return Event{
		Type: eventType,
		Data: CatalogEventData{
			SortKey: string(change.SortKey),
			Count:   change.Count,
		},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	return Event{
		Type: EventHeartbeat,
		Data: HeartbeatEventData{
			ServerTime: time.Now(),
		},
		Timestamp: time.Now(),
	}
}
