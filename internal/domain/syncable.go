package domain

import "time"

// Syncable carries the identity and lifecycle timestamps shared by every
// persisted entity. UpdatedAt drives the incremental search index poll, so
// any change that should reach the index must move it forward.
type Syncable struct {
	ID        string     `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (s *Syncable) InitTimestamps(now time.Time) {
	s.CreatedAt = now
	s.UpdatedAt = now
}

// Touch records a modification at now.
func (s *Syncable) Touch(now time.Time) {
	s.UpdatedAt = now
}

// IsDeleted reports whether the entity is a tombstone.
func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// MarkDeleted turns the entity into a tombstone. UpdatedAt moves too so the
// deletion shows up in "modified since" queries.
func (s *Syncable) MarkDeleted(now time.Time) {
	s.DeletedAt = &now
	s.UpdatedAt = now
}
