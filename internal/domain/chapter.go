package domain

// Chapter is one installment of a novel. Number is unique within the novel
// and is how readers and library progress refer to it.
type Chapter struct {
	Syncable
	NovelID   string `json:"novel_id"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	WordCount int    `json:"word_count"`
}
