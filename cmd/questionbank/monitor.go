package main

import (
	"fmt"
	"io"
	"time"

	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/search"
	"github.com/poiesic/questionbank/similarity"
)

// verboseMonitor prints search diagnostics.
type verboseMonitor struct {
	w     io.Writer
	start time.Time
}

var _ search.SearchMonitor = (*verboseMonitor)(nil)

func newVerboseMonitor(w io.Writer) *verboseMonitor {
	return &verboseMonitor{w: w}
}

func (m *verboseMonitor) Start(q search.Query) {
	m.start = time.Now()
	fmt.Fprintf(m.w, "search: company=%q role=%q query=%q\n", q.Company, q.Role, q.Text)
}

func (m *verboseMonitor) AfterLoad(records []*core.QuestionRecord) {
	embedded := 0
	for _, r := range records {
		if r.HasEmbedding() {
			embedded++
		}
	}
	fmt.Fprintf(m.w, "loaded %d questions (%d with embeddings) in %s\n", len(records), embedded, time.Since(m.start))
}

func (m *verboseMonitor) AfterQueryEmbedding(dimensions, candidates int) {
	fmt.Fprintf(m.w, "query embedded (%d dimensions), %d candidates\n", dimensions, candidates)
}

func (m *verboseMonitor) AfterRanking(matches []similarity.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(m.w, "no semantic matches")
		return
	}
	fmt.Fprintf(m.w, "ranked %d matches, best %.3f worst %.3f\n",
		len(matches), matches[0].Similarity, matches[len(matches)-1].Similarity)
}

func (m *verboseMonitor) Finish(results []*core.SearchCandidate) {
	counts := map[core.MatchType]int{}
	for _, r := range results {
		counts[r.MatchType]++
	}
	fmt.Fprintf(m.w, "%d results (exact=%d company=%d role=%d) in %s\n", len(results),
		counts[core.MatchTypeExact], counts[core.MatchTypeCompany], counts[core.MatchTypeRole], time.Since(m.start))
}
