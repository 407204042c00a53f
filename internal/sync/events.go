package sync

import "time"

const (
	EventSelectionChanged = "selection.changed"
	EventRowUpdated       = "row.updated"
	EventSearchClosed     = "search.closed"
)

// SelectionEvent is pushed to feed subscribers whenever a search session changes.
type SelectionEvent struct {
	Type      string    `json:"type"`
	SearchID  string    `json:"search_id"`
	ProductID int64     `json:"product_id,omitempty"`
	ID        int64     `json:"id,omitempty"`   // product or variation id for selection.changed
	Kind      string    `json:"kind,omitempty"` // "select" or "toggle"
	Value     any       `json:"value,omitempty"`
	At        time.Time `json:"at"`
}

// Scope is the search the event belongs to; WebSocket subscribers may
// filter on it.
func (e SelectionEvent) Scope() string { return e.SearchID }
