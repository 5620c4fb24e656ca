package search

import (
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query Query)
	AfterFilter(filter storage.Filter)
	AfterIndexSearch(matches []*core.ScoredDocument)
	Finish(results []*core.SearchResult)
	Failed(err error)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ Query)                              {}
func (n *noopMonitor) AfterFilter(_ storage.Filter)               {}
func (n *noopMonitor) AfterIndexSearch(_ []*core.ScoredDocument) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)              {}
func (n *noopMonitor) Failed(_ error)                             {}
