package matching

import "time"

// Phase names a stage of a matching or embedding run
type Phase string

const (
	PhaseFiltering Phase = "filtering"
	PhaseStoring   Phase = "storing"
	PhaseScoring   Phase = "scoring"
	PhaseSaving    Phase = "saving"
	PhaseEmbedding Phase = "embedding"
)

// Progress represents the current run progress
type Progress struct {
	Phase       Phase
	Current     int       // Items done in this phase
	Total       int       // Total items in this phase
	Description string    // Human-readable description
	StartedAt   time.Time // When this phase started (for ETA calculation)
}

// ProgressCallback is called with progress updates during a run. Scoring
// and embedding phases call it from worker goroutines.
type ProgressCallback func(Progress)

// ETA returns the estimated time remaining based on current progress
func (p Progress) ETA() time.Duration {
	if p.Current == 0 || p.Total == 0 || p.StartedAt.IsZero() {
		return 0
	}
	elapsed := time.Since(p.StartedAt)
	rate := float64(p.Current) / elapsed.Seconds()
	if rate <= 0 {
		return 0
	}
	remaining := p.Total - p.Current
	return time.Duration(float64(remaining)/rate) * time.Second
}

// Percentage returns the completion percentage (0-100)
func (p Progress) Percentage() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Current * 100) / p.Total
}

// reporter sends progress for one phase, doing nothing when cb is nil
type reporter struct {
	cb        ProgressCallback
	phase     Phase
	total     int
	desc      string
	startedAt time.Time
}

func newReporter(cb ProgressCallback, phase Phase, total int, desc string) *reporter {
	r := &reporter{cb: cb, phase: phase, total: total, desc: desc, startedAt: time.Now()}
	r.report(0)
	return r
}

func (r *reporter) report(current int) {
	if r.cb == nil {
		return
	}
	r.cb(Progress{
		Phase:       r.phase,
		Current:     current,
		Total:       r.total,
		Description: r.desc,
		StartedAt:   r.startedAt,
	})
}
