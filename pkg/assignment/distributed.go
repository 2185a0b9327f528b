package assignment

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
	"github.com/travigo/capacity-assignment/pkg/distqueue"
)

// distributedIteration is the mutable state one iteration of
// RunDistributed accumulates into. RunDistributed swaps this pointer at
// the start of every iteration and waits until every destination of the
// iteration has been processed before swapping again; the single
// long-lived consumer pool reads it through the mutex-guarded current
// variable when a delivery is processed. Deliveries carry no iteration
// number, so a delivery processed after a swap is folded into the
// iteration that is current at that moment.
type distributedIteration struct {
	mu                sync.Mutex
	wg                sync.WaitGroup
	builder           *Builder
	seed              int64
	merged            *AssignmentData
	removedCycles     int
	removedCycleConns []csa.ConnectionID
}

// RunDistributed is Run's counterpart for --distributed mode: the same
// fixed-point iteration and the same per-destination unit of work, but
// destinations are drained off a shared Redis queue by a fixed pool of
// consumer goroutines instead of handed to an in-process conc pool. This
// lets a deployment scale consumers independently of whoever publishes
// the work, at the cost of a round trip through Redis per destination
// per iteration. The consumer pool is started once and reused across
// every iteration of the run.
func (c *Coordinator) RunDistributed(entries []demand.Entry, numWorkers int) error {
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
		}
	}

	publisher, err := distqueue.NewPublisher()
	if err != nil {
		return fmt.Errorf("assignment: opening distributed queue: %w", err)
	}

	var currentMu sync.Mutex
	var current *distributedIteration

	process := func(work distqueue.DestinationWork) error {
		currentMu.Lock()
		iter := current
		currentMu.Unlock()
		if iter == nil {
			return fmt.Errorf("assignment: received destination work before an iteration was ready")
		}
		return c.processDistributedDestination(iter, work)
	}
	if err := distqueue.StartConsumers(numWorkers, process); err != nil {
		return fmt.Errorf("assignment: starting distributed consumers: %w", err)
	}

	for iteration := startIteration; iteration <= c.settings.MaxIterations; iteration++ {
		iter := &distributedIteration{
			builder: NewBuilder(c.data, c.reverseGraph, c.settings),
			seed:    c.settings.RandomSeed + int64(iteration),
			merged:  NewAssignmentData(c.data.NumberOfConnections()),
		}
		iter.wg.Add(len(c.byDest))

		currentMu.Lock()
		current = iter
		currentMu.Unlock()

		if err := publisher.Publish(c.byDest); err != nil {
			return fmt.Errorf("assignment: publishing iteration %d: %w", iteration, err)
		}
		iter.wg.Wait()

		stats, newLoads := c.finishDistributedIteration(iteration, iter)
		c.recordIteration(stats, iter.merged, iter.removedCycleConns, stats.Unfinished == 0)

		log.Info().
			Int("iteration", iteration).
			Int("unfinished", stats.Unfinished).
			Int("overloaded", stats.Overloaded).
			Float64("maxRelativeDiff", stats.MaxRelativeDiff).
			Msg("distributed assignment iteration complete")

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

// processDistributedDestination is the unit of work one queue delivery
// runs: build the destination's PAT against the coordinator's current
// load snapshot, walk its demand, and fold the result into iter under
// iter's own lock.
func (c *Coordinator) processDistributedDestination(iter *distributedIteration, work distqueue.DestinationWork) error {
	defer iter.wg.Done()

	model, err := NewDecisionModel(c.settings)
	if err != nil {
		return err
	}
	cycleRemover := NewStopRevisitCycleRemover(c.data)
	rng := rand.New(rand.NewSource(iter.seed + int64(work.Destination)))
	result := c.runOneDestination(iter.builder, model, cycleRemover, work.Destination, work.Entries, rng)

	iter.mu.Lock()
	iter.merged.Merge(result.assignment)
	iter.removedCycles += result.removedCycles
	iter.removedCycleConns = append(iter.removedCycleConns, result.removedCycleConns...)
	iter.mu.Unlock()
	return nil
}

// finishDistributedIteration computes the same diagnostics runIteration
// would, once every destination of iter has reported in.
func (c *Coordinator) finishDistributedIteration(iteration int, iter *distributedIteration) (IterationStats, []float64) {
	newLoads := make([]float64, c.data.NumberOfConnections())
	for connID, units := range iter.merged.LoadUnits {
		newLoads[connID] = units / float64(c.settings.PassengerMultiplier)
	}

	stats := IterationStats{
		Iteration:     iteration,
		Unassigned:    iter.merged.UnassignedCount(),
		DirectWalking: iter.merged.DirectWalkingCount(),
		RemovedCycles: iter.removedCycles,
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

	return stats, newLoads
}
