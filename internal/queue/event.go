// Package queue defines message payloads exchanged over the message broker.
package queue

// DirectoryChangedEvent is published after every successful admin mutation
// of a place or tag. It carries enough information for downstream
// consumers to build an audit trail or warm caches without querying the
// primary database.
type DirectoryChangedEvent struct {
	Entity     string `json:"entity"`              // "place" or "tag"
	Action     string `json:"action"`              // created | updated | deleted | bulk_saved
	EntityID   uint64 `json:"entity_id,omitempty"` // zero for bulk actions
	Name       string `json:"name,omitempty"`      // place name or tag value
	ActorID    uint64 `json:"actor_id,omitempty"`  // admin user id, when known
	OccurredAt string `json:"occurred_at"`         // RFC3339 UTC
}
