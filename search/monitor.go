package search

import (
	"github.com/poiesic/questionbank/core"
	"github.com/poiesic/questionbank/similarity"
)

// SearchMonitor observes the stages of a single search.
type SearchMonitor interface {
	Start(query Query)
	AfterLoad(records []*core.QuestionRecord)
	AfterQueryEmbedding(dimensions int, candidates int)
	AfterRanking(matches []similarity.Match)
	Finish(results []*core.SearchCandidate)
}

type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                      {}
func (n *noopMonitor) AfterLoad(_ []*core.QuestionRecord) {}
func (n *noopMonitor) AfterQueryEmbedding(_ int, _ int)   {}
func (n *noopMonitor) AfterRanking(_ []similarity.Match)  {}
func (n *noopMonitor) Finish(_ []*core.SearchCandidate)   {}
