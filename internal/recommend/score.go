package recommend

import "github.com/inkwell/inkwell-server/internal/domain"

// Scoring weights for content similarity.
const (
	sameAuthorWeight  = 2.0
	sharedGenreWeight = 1.5
	noGenrePenalty    = -1.0
	sharedTagWeight   = 0.5
)

// Profile is the part of a novel content similarity looks at.
type Profile struct {
	AuthorID string
	Genres   []string
	Tags     []string
}

// ProfileOf projects n for scoring.
func ProfileOf(n *domain.Novel) Profile {
	return Profile{AuthorID: n.AuthorID, Genres: n.Genres, Tags: n.Tags}
}

// Score rates how similar candidate is to source. Same author adds 2, each
// shared genre 1.5 and each shared tag 0.5. Sharing no genre at all costs a
// flat 1.
func Score(source, candidate Profile) float64 {
	var score float64
	if source.AuthorID != "" && source.AuthorID == candidate.AuthorID {
		score += sameAuthorWeight
	}

	if shared := overlap(source.Genres, candidate.Genres); shared > 0 {
		score += sharedGenreWeight * float64(shared)
	} else {
		score += noGenrePenalty
	}

	score += sharedTagWeight * float64(overlap(source.Tags, candidate.Tags))
	return score
}

// overlap counts distinct values present in both a and b.
func overlap(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	n := 0
	for _, v := range b {
		if _, ok := set[v]; ok {
			n++
			delete(set, v)
		}
	}
	return n
}
