package domain

// ReadingStatus is a user's relationship to a novel in their library.
type ReadingStatus string

const (
	ReadingStatusPlanToRead ReadingStatus = "plan_to_read"
	ReadingStatusReading    ReadingStatus = "reading"
	ReadingStatusCompleted  ReadingStatus = "completed"
	ReadingStatusOnHold     ReadingStatus = "on_hold"
	ReadingStatusDropped    ReadingStatus = "dropped"
)

// Valid reports whether s is a known reading status.
func (s ReadingStatus) Valid() bool {
	switch s {
	case ReadingStatusPlanToRead, ReadingStatusReading, ReadingStatusCompleted,
		ReadingStatusOnHold, ReadingStatusDropped:
		return true
	}
	return false
}

// Consumed reports whether the user has actually read (some of) the novel.
// Only consumed entries seed content similarity.
func (s ReadingStatus) Consumed() bool {
	return s == ReadingStatusReading || s == ReadingStatusCompleted
}

// LibraryEntry links a user to a novel. Unique per (UserID, NovelID).
//
// Novel is populated by list queries so recommendation heuristics can work
// from one read.
type LibraryEntry struct {
	Syncable
	UserID          string        `json:"user_id"`
	NovelID         string        `json:"novel_id"`
	Status          ReadingStatus `json:"status"`
	LastReadChapter int           `json:"last_read_chapter"`
	Note            string        `json:"note,omitempty"`
	Novel           *Novel        `json:"novel,omitempty"`
}
