package similarity

import (
	"fmt"
	"sort"
)

// Candidate is a vector to be ranked, identified by an opaque key.
type Candidate struct {
	ID     string
	Vector []float32
}

// Match is a ranked candidate.
type Match struct {
	ID         string
	Similarity float64
}

// TopK scores every candidate against query and returns the k best,
// highest similarity first. Ties keep their input order. k <= 0 returns an
// empty result. Any dimension mismatch fails the whole ranking.
func TopK(query []float32, candidates []Candidate, k int) ([]Match, error) {
	if k <= 0 || len(candidates) == 0 {
		return []Match{}, nil
	}

	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		score, err := CosineSimilarity(query, c.Vector)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		matches = append(matches, Match{ID: c.ID, Similarity: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
