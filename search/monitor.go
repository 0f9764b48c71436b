package search

import "github.com/poiesic/capsearch/core"

// QueryMonitor provides hooks to observe the query process.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(key, query string)
	AfterNormalize(tokens []string)
	AfterScoring(scores []float64)
	Finish(results []core.Result)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_, _ string)         {}
func (n *noopMonitor) AfterNormalize(_ []string) {}
func (n *noopMonitor) AfterScoring(_ []float64)  {}
func (n *noopMonitor) Finish(_ []core.Result)    {}
