// Package queue defines message payloads exchanged over the message broker.
package queue

// ShareCreatedEvent is published when an admin creates a new shared
// report. Downstream consumers can audit or notify without querying the
// primary database. The password hash is never part of the payload.
type ShareCreatedEvent struct {
	ShareID   uint64 `json:"share_id"`
	ScopeKind string `json:"scope_kind"`
	ScopeID   uint64 `json:"scope_id"`
	ShareKey  string `json:"share_key"`
	MergeMode string `json:"merge_mode"`
	Protected bool   `json:"protected"`
	CreatedAt string `json:"created_at"`
}

// ShareViewedEvent is published after an anonymous visitor successfully
// opened a shared report view. Used for analytics; best-effort only.
type ShareViewedEvent struct {
	ShareID   uint64 `json:"share_id"`
	ScopeKind string `json:"scope_kind"`
	ScopeID   uint64 `json:"scope_id"`
	ShareKey  string `json:"share_key"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	ViewedAt  string `json:"viewed_at"`
}
