package domain

// Comment is a reader comment on a novel, optionally scoped to a chapter.
type Comment struct {
	Syncable
	NovelID    string `json:"novel_id"`
	ChapterID  string `json:"chapter_id,omitempty"`
	UserID     string `json:"user_id"`
	AuthorName string `json:"author_name"`
	Body       string `json:"body"`
}
