package assignment

import (
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"

	"github.com/travigo/capacity-assignment/pkg/assignment/decision"
	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
)

// IterationStats is the diagnostic summary §4.5 step 6 and §7 require
// after every iteration.
type IterationStats struct {
	Iteration           int
	Unfinished          int
	Overloaded          int
	MaxRelativeOverload float64
	MaxRelativeDiff     float64
	Unassigned          int
	DirectWalking       int
	RemovedCycles       int
	Converged           bool
}

// Checkpointer is the external collaborator the coordinator checkpoints
// the load vector through between iterations, so a long run can resume
// instead of restarting from iteration 1. A nil Checkpointer disables
// checkpointing.
type Checkpointer interface {
	Save(iteration int, loads []float64) error
	Load() (iteration int, loads []float64, ok bool, err error)
}

// Coordinator drives the fixed-point iteration of §4.5: partition demand
// by destination, run workers in parallel, merge, average, and test
// convergence.
type Coordinator struct {
	data         *csa.Data
	reverseGraph *csa.TransferGraph
	settings     Settings
	checkpoint   Checkpointer

	loads  ConnectionLoadData
	byDest map[csa.Vertex][]demand.Entry

	// statsMu guards every field below it: the run loop (Run or
	// RunDistributed) writes them as each iteration completes, while
	// CurrentDiagnostics and the other public getters are read from
	// statusapi's own goroutine while a run is still in progress
	// (spec.md §4.11's "dashboards that poll a long assignment run").
	statsMu           sync.Mutex
	assignment        *AssignmentData
	iterations        []IterationStats
	converged         bool
	removedCycleConns []csa.ConnectionID
}

// recordIteration appends one iteration's results under statsMu, the
// only place Run/RunDistributed mutate the coordinator's exported state.
func (c *Coordinator) recordIteration(stats IterationStats, assignment *AssignmentData, removedCycleConns []csa.ConnectionID, converged bool) {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	c.assignment = assignment
	c.iterations = append(c.iterations, stats)
	c.removedCycleConns = append(c.removedCycleConns, removedCycleConns...)
	if converged {
		c.converged = true
	}
}

// NewCoordinator builds a coordinator over data/reverseGraph/capacity,
// ready to Run against a demand table.
func NewCoordinator(data *csa.Data, reverseGraph *csa.TransferGraph, settings Settings, capacity []float64, checkpoint Checkpointer) *Coordinator {
	return &Coordinator{
		data:         data,
		reverseGraph: reverseGraph,
		settings:     settings,
		checkpoint:   checkpoint,
		loads:        NewConnectionLoadData(capacity),
	}
}

// Run executes the iteration loop against entries until convergence or
// settings.MaxIterations, whichever comes first.
func (c *Coordinator) Run(entries []demand.Entry) error {
	c.byDest = partitionByDestination(entries)
	c.statsMu.Lock()
	c.assignment = NewAssignmentData(c.data.NumberOfConnections())
	c.statsMu.Unlock()

	startIteration := 1
	if c.checkpoint != nil {
		iteration, loads, ok, err := c.checkpoint.Load()
		if err != nil {
			return fmt.Errorf("assignment: loading checkpoint: %w", err)
		}
		if ok {
			copy(c.loads.Load, loads)
			startIteration = iteration + 1
			log.Info().Int("iteration", iteration).Msg("resumed assignment from checkpoint")
		}
	}

	for iteration := startIteration; iteration <= c.settings.MaxIterations; iteration++ {
		stats, newLoads, assignment, removedCycleConns, err := c.runIteration(iteration)
		if err != nil {
			return err
		}
		c.recordIteration(stats, assignment, removedCycleConns, stats.Unfinished == 0)

		log.Info().
			Int("iteration", iteration).
			Int("unfinished", stats.Unfinished).
			Int("overloaded", stats.Overloaded).
			Float64("maxRelativeDiff", stats.MaxRelativeDiff).
			Msg("assignment iteration complete")

		if stats.Unfinished == 0 {
			return nil
		}
		c.smooth(iteration, newLoads)

		if c.checkpoint != nil {
			if err := c.checkpoint.Save(iteration, c.loads.Load); err != nil {
				log.Warn().Err(err).Msg("failed to save assignment checkpoint")
			}
		}
	}
	return nil
}

// runIteration performs one full parallel pass over every destination:
// build its PAT, walk its demand, remove cycles, and merge the result.
// Destinations are dequeued by conc's pool off a single shared slice, the
// guided dynamic scheduling named in §5.
func (c *Coordinator) runIteration(iteration int) (IterationStats, []float64, *AssignmentData, []csa.ConnectionID, error) {
	destinations := make([]csa.Vertex, 0, len(c.byDest))
	for d := range c.byDest {
		destinations = append(destinations, d)
	}
	sort.Slice(destinations, func(i, j int) bool { return destinations[i] < destinations[j] })

	// builder.Build allocates all of its working state fresh per call, so
	// one Builder can be shared read-only across every goroutine below.
	// A CycleRemover is stateful across the calls in one Remove batch, so
	// each goroutine gets its own instance instead.
	builder := NewBuilder(c.data, c.reverseGraph, c.settings)

	numCores := runtime.NumCPU()
	p := pool.NewWithResults[*workerResult]().WithMaxGoroutines(c.settings.NumThreads)
	for threadSlot, destination := range destinations {
		destination := destination
		entries := c.byDest[destination]
		seed := c.settings.RandomSeed + int64(threadSlot)
		core := (threadSlot * c.settings.PinMultiplier) % numCores
		p.Go(func() *workerResult {
			pinCurrentThread(core)
			model, err := NewDecisionModel(c.settings)
			if err != nil {
				log.Error().Err(err).Msg("failed to build decision model for worker")
				return &workerResult{assignment: NewAssignmentData(c.data.NumberOfConnections())}
			}
			cycleRemover := NewStopRevisitCycleRemover(c.data)
			return c.runOneDestination(builder, model, cycleRemover, destination, entries, rand.New(rand.NewSource(seed)))
		})
	}
	results := p.Wait()

	merged := NewAssignmentData(c.data.NumberOfConnections())
	removedCycles := 0
	var removedCycleConns []csa.ConnectionID
	for _, r := range results {
		if r == nil {
			continue
		}
		merged.Merge(r.assignment)
		removedCycles += r.removedCycles
		removedCycleConns = append(removedCycleConns, r.removedCycleConns...)
	}

	newLoads := make([]float64, c.data.NumberOfConnections())
	for connID, units := range merged.LoadUnits {
		newLoads[connID] = units / float64(c.settings.PassengerMultiplier)
	}

	stats := IterationStats{
		Iteration:     iteration,
		Unassigned:    merged.UnassignedCount(),
		DirectWalking: merged.DirectWalkingCount(),
		RemovedCycles: removedCycles,
	}
	for connID := range newLoads {
		capacity := c.loads.Capacity[connID]
		if capacity <= 0 {
			continue
		}
		diff := absFloat(newLoads[connID]-c.loads.Load[connID]) / capacity
		if diff > stats.MaxRelativeDiff {
			stats.MaxRelativeDiff = diff
		}
		if diff >= c.settings.ConvergenceLimit {
			stats.Unfinished++
		}
		if newLoads[connID] > capacity {
			stats.Overloaded++
			overload := (newLoads[connID] - capacity) / capacity
			if overload > stats.MaxRelativeOverload {
				stats.MaxRelativeOverload = overload
			}
		}
	}
	stats.Converged = stats.Unfinished == 0

	return stats, newLoads, merged, removedCycleConns, nil
}

type workerResult struct {
	assignment        *AssignmentData
	removedCycles     int
	removedCycleConns []csa.ConnectionID
}

// runOneDestination builds the PAT for destination against the
// coordinator's current load snapshot and walks its demand. Reading
// c.loads here is safe without synchronization: all concurrently running
// calls only read it, and it is never mutated until every worker in this
// iteration has returned.
func (c *Coordinator) runOneDestination(builder *Builder, model decision.Model, cycleRemover CycleRemover, destination csa.Vertex, entries []demand.Entry, rng *rand.Rand) *workerResult {
	pat, err := builder.Build(destination, c.loads)
	if err != nil {
		log.Error().Err(err).Int("destination", int(destination)).Msg("failed to build PAT data for destination")
		return &workerResult{assignment: NewAssignmentData(c.data.NumberOfConnections())}
	}

	worker := NewWorker(c.data, pat, c.settings, model, rng, cycleRemover)
	assignment := worker.Run(entries)
	return &workerResult{
		assignment:        assignment,
		removedCycles:     worker.RemovedCycles(),
		removedCycleConns: worker.RemovedCycleConnections(),
	}
}

// smooth applies the method-of-successive-averages update L_k =
// ((k-1)*L_{k-1} + L_new)/k to every connection's load.
func (c *Coordinator) smooth(iteration int, newLoads []float64) {
	k := float64(iteration)
	for connID := range c.loads.Load {
		c.loads.Load[connID] = ((k-1)*c.loads.Load[connID] + newLoads[connID]) / k
	}
}

// Converged reports whether the last Run call terminated by convergence
// rather than exhausting MaxIterations.
func (c *Coordinator) Converged() bool {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.converged
}

// Iterations returns the per-iteration diagnostics accumulated by Run.
func (c *Coordinator) Iterations() []IterationStats {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return append([]IterationStats(nil), c.iterations...)
}

// AssignmentData returns the merged assignment data from the final
// completed iteration.
func (c *Coordinator) AssignmentData() *AssignmentData {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return c.assignment
}

// PassengerCountsPerConnection returns L[c] = load units / passengerMultiplier
// for every connection, the core's getPassengerCountsPerConnection
// operation.
func (c *Coordinator) PassengerCountsPerConnection() []float64 {
	return c.loads.Load
}

// RemovedCycles is the core's getRemovedCycles operation: the total
// number of connections cut by cycle removal across every iteration run
// so far.
func (c *Coordinator) RemovedCycles() int {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	total := 0
	for _, s := range c.iterations {
		total += s.RemovedCycles
	}
	return total
}

// RemovedCycleConnections is the core's getRemovedCycleConnections
// operation.
func (c *Coordinator) RemovedCycleConnections() []csa.ConnectionID {
	c.statsMu.Lock()
	defer c.statsMu.Unlock()
	return append([]csa.ConnectionID(nil), c.removedCycleConns...)
}

func partitionByDestination(entries []demand.Entry) map[csa.Vertex][]demand.Entry {
	byDest := make(map[csa.Vertex][]demand.Entry)
	for _, e := range entries {
		byDest[e.Destination] = append(byDest[e.Destination], e)
	}
	for d := range byDest {
		sorted := byDest[d]
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].EarliestDepartureTime < sorted[j].EarliestDepartureTime
		})
		byDest[d] = sorted
	}
	return byDest
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
