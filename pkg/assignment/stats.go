package assignment

// Diagnostics summarizes a completed (or in-progress) Run call for the
// CLI and the live status API: a flattened view of the last
// IterationStats plus run-level totals §7 asks the core to surface.
type Diagnostics struct {
	IterationsRun int
	Converged     bool
	Unfinished    int
	Overloaded    int
	MaxRelativeOverload float64
	MaxRelativeDiff     float64
	Unassigned          int
	DirectWalking       int
	RemovedCycles       int
}

// CurrentDiagnostics returns a snapshot built from the most recent
// completed iteration, or a zero value before any iteration has run.
// Safe to call concurrently with Run/RunDistributed: statusapi's
// /status handler polls this from its own goroutine while a run is
// still in progress (spec.md §4.11).
func (c *Coordinator) CurrentDiagnostics() Diagnostics {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()

	if len(c.iterations) == 0 {
		return Diagnostics{}
	}
	last := c.iterations[len(c.iterations)-1]
	removedCycles := 0
	for _, s := range c.iterations {
		removedCycles += s.RemovedCycles
	}
	return Diagnostics{
		IterationsRun:       len(c.iterations),
		Converged:           c.converged,
		Unfinished:          last.Unfinished,
		Overloaded:          last.Overloaded,
		MaxRelativeOverload: last.MaxRelativeOverload,
		MaxRelativeDiff:     last.MaxRelativeDiff,
		Unassigned:          last.Unassigned,
		DirectWalking:       last.DirectWalking,
		RemovedCycles:       removedCycles,
	}
}
