package embedding

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressStats is a snapshot of a vocabulary embedding run.
type ProgressStats struct {
	Words   int
	Total   int
	Batches int
	Retries int
	Elapsed time.Duration
}

// Percent returns the share of the vocabulary embedded so far.
func (s ProgressStats) Percent() float64 {
	if s.Total == 0 {
		return 100
	}
	return float64(s.Words) / float64(s.Total) * 100
}

// ProgressTracker prints a single carriage-return progress line while a
// vocabulary is embedded batch by batch. Safe for concurrent use.
type ProgressTracker struct {
	mu       sync.Mutex
	writer   io.Writer
	interval int
	since    int
	stats    ProgressStats
	started  time.Time
	finished bool
}

// NewProgressTracker starts tracking total words, printing to w (nil discards)
// every time at least interval more words have been embedded.
func NewProgressTracker(w io.Writer, total, interval int) *ProgressTracker {
	if w == nil {
		w = io.Discard
	}
	return &ProgressTracker{
		writer:   w,
		interval: max(interval, 1),
		stats:    ProgressStats{Total: total},
		started:  time.Now(),
	}
}

// Batch records one completed request of n words that needed retries
// extra attempts.
func (p *ProgressTracker) Batch(n, retries int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.finished {
		return
	}

	p.stats.Words = min(p.stats.Words+n, p.stats.Total)
	p.stats.Batches++
	p.stats.Retries += retries
	p.since += n
	if p.since >= p.interval {
		p.print()
		p.since = 0
	}
}

// Finish prints the final line and returns the run's statistics. Later calls
// return the same snapshot.
func (p *ProgressTracker) Finish() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.finished {
		p.finished = true
		p.stats.Elapsed = time.Since(p.started)
		p.print()
		fmt.Fprintln(p.writer)
	}
	return p.stats
}

// Stats returns the current snapshot.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	stats := p.stats
	if !p.finished {
		stats.Elapsed = time.Since(p.started)
	}
	return stats
}

func (p *ProgressTracker) print() {
	retries := ""
	if p.stats.Retries > 0 {
		retries = fmt.Sprintf(", %d retried", p.stats.Retries)
	}
	fmt.Fprintf(p.writer, "\rvocabulary %d/%d words (%.1f%%) in %d batches%s",
		p.stats.Words, p.stats.Total, p.stats.Percent(), p.stats.Batches, retries)
}
