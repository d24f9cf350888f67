package ws

import (
	"encoding/json"

	"saferoute/internal/models"
	"saferoute/internal/observability"
)

// Message types sent on /ws/map.
const (
	TypeSnapshot = "snapshot"
	TypeVerified = "verified"
	TypeRemoved  = "removed"
)

type MapMessage struct {
	Type    string                  `json:"type"`
	Markers []models.IncidentMarker `json:"markers,omitempty"`
	IDs     []uint                  `json:"ids,omitempty"`
}

// MapHub streams verified incident markers to live map viewers. A new
// viewer gets the full snapshot, then incremental changes.
type MapHub struct {
	*Hub
	snapshot func() []models.IncidentMarker
}

func NewMapHub(snapshot func() []models.IncidentMarker, metrics *observability.Metrics) *MapHub {
	h := &MapHub{Hub: NewHub(), snapshot: snapshot}
	h.onChange = metrics.SetMapClients
	return h
}

// PublishVerified announces reports that became publicly visible.
func (m *MapHub) PublishVerified(markers []models.IncidentMarker) {
	if len(markers) == 0 {
		return
	}
	m.BroadcastAll(MapMessage{Type: TypeVerified, Markers: markers})
}

// PublishRemoved announces reports that are no longer public.
func (m *MapHub) PublishRemoved(ids []uint) {
	if len(ids) == 0 {
		return
	}
	m.BroadcastAll(MapMessage{Type: TypeRemoved, IDs: ids})
}

// Join registers c and queues the current snapshot for it.
func (m *MapHub) Join(c *Client) {
	m.Register(c)
	markers := []models.IncidentMarker{}
	if m.snapshot != nil {
		markers = m.snapshot()
	}
	data, err := json.Marshal(MapMessage{Type: TypeSnapshot, Markers: markers})
	if err != nil {
		return
	}
	c.trySend(data)
}
