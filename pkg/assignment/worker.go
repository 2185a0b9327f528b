package assignment

import (
	"math"
	"math/rand"

	"github.com/travigo/capacity-assignment/pkg/assignment/decision"
	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
	"github.com/travigo/capacity-assignment/pkg/util"
)

// patToFloat translates the PAT sentinel into the math.Inf(1) convention
// the decision package's Model implementations filter on, so a worker's
// unreachable alternative is never assigned positive probability.
func patToFloat(p PerceivedTime) float64 {
	if p.Unreachable() {
		return math.Inf(1)
	}
	return float64(p)
}

// Worker processes one destination's demand against a PATData built for
// that destination: the forward passenger walk of §4.4. A Worker is
// created fresh per (destination, iteration) and owns no state the
// coordinator needs to synchronize except its accumulator, merged once
// the worker returns.
type Worker struct {
	data     *csa.Data
	pat      *PATData
	settings Settings
	model    decision.Model
	rng      *rand.Rand

	accumulator       *AssignmentData
	cycleRemover      CycleRemover
	removedCycles     int
	removedCycleConns []csa.ConnectionID
}

// NewWorker builds a worker for one destination. rng must not be shared
// across concurrently running workers.
func NewWorker(data *csa.Data, pat *PATData, settings Settings, model decision.Model, rng *rand.Rand, cycleRemover CycleRemover) *Worker {
	return &Worker{
		data:         data,
		pat:          pat,
		settings:     settings,
		model:        model,
		rng:          rng,
		accumulator:  NewAssignmentData(data.NumberOfConnections()),
		cycleRemover: cycleRemover,
	}
}

// Run processes entries (already sorted by earliest departure time on
// the caller's first call; the worker does not re-sort) and returns the
// accumulated assignment data after running cycle removal over the
// journeys it produced.
func (w *Worker) Run(entries []demand.Entry) *AssignmentData {
	journeys := make([][]csa.ConnectionID, 0, len(entries))
	groups := make([]Group, 0, len(entries))

	for _, entry := range entries {
		units := entry.NumberOfPassengers * w.settings.PassengerMultiplier
		if units <= 0 {
			continue
		}
		journey, classification := w.route(entry)
		group := Group{DemandIndex: entry.DemandIndex, Size: units, JourneyConnections: journey}
		if classification == Assigned && len(journey) > 0 {
			journeys = append(journeys, journey)
			groups = append(groups, group)
		}
		w.accumulator.Record(group, classification)
	}

	cleaned := w.cycleRemover.Remove(journeys)
	w.removedCycles = w.cycleRemover.LastRemovedCount()
	w.removedCycleConns = w.cycleRemover.LastRemovedConnections()
	w.accumulator = rebuildWithCleanedJourneys(w.accumulator, groups, cleaned)
	return w.accumulator
}

// RemovedCycles reports how many loops CycleRemoval discarded from this
// worker's journeys, for the coordinator's diagnostics.
func (w *Worker) RemovedCycles() int {
	return w.removedCycles
}

// RemovedCycleConnections returns the connection ids CycleRemoval cut
// from this worker's journeys, the core's getRemovedCycleConnections
// operation.
func (w *Worker) RemovedCycleConnections() []csa.ConnectionID {
	return w.removedCycleConns
}

// route walks one demand entry forward through the profile and returns
// its resulting journey plus how it was classified.
func (w *Worker) route(entry demand.Entry) ([]csa.ConnectionID, Classification) {
	stop := entry.Origin
	t := entry.EarliestDepartureTime

	if math.IsInf(patToFloat(w.pat.DirectWalkPAT(stop, t)), 1) &&
		math.IsInf(w.boardAlternative(stop, t).PAT, 1) &&
		math.IsInf(w.transferAlternative(stop, t).PAT, 1) {
		return nil, Unassigned
	}

	var journey []csa.ConnectionID
	for len(journey) < maxJourneyHops {
		boardAlt := w.boardAlternative(stop, t)
		transferAlt := w.transferAlternative(stop, t)
		walkAlt := decision.Alternative{Label: "walk", PAT: patToFloat(w.pat.DirectWalkPAT(stop, t))}

		alternatives := []decision.Alternative{boardAlt, transferAlt, walkAlt}
		probabilities := w.model.Distribute(alternatives, w.rng)
		choice := sampleUnits(probabilities, w.rng)

		switch choice {
		case 0:
			if math.IsInf(boardAlt.PAT, 1) {
				return nil, Unassigned
			}
			connID := w.waitingProfileEntry(stop, t).OriginConnection
			journey = w.rideTrip(journey, connID)
			last := w.data.Connections[journey[len(journey)-1]]
			if last.ArrivalStop.Vertex() == w.pat.Destination {
				return journey, Assigned
			}
			stop, t = last.ArrivalStop.Vertex(), last.ArrivalTime
		case 1:
			if math.IsInf(transferAlt.PAT, 1) {
				return nil, Unassigned
			}
			connID := w.transferProfileEntry(stop, t).OriginConnection
			journey = w.rideTrip(journey, connID)
			last := w.data.Connections[journey[len(journey)-1]]
			if last.ArrivalStop.Vertex() == w.pat.Destination {
				return journey, Assigned
			}
			stop, t = last.ArrivalStop.Vertex(), last.ArrivalTime
		default:
			if len(journey) == 0 {
				return nil, DirectWalking
			}
			return journey, Assigned
		}
	}
	return journey, Assigned
}

// maxJourneyHops bounds the forward walk so a misbuilt profile (or a
// genuine cycle the builder's dominance rule failed to prevent) cannot
// spin the worker forever; §8 invariant 5 guarantees the backward scan
// itself never loops, this is a defensive cap on the replay only.
const maxJourneyHops = 10000

// rideTrip boards connID and, while its label says to stay on the trip,
// keeps advancing along consecutive connections of the same trip,
// appending each to journey. This replays the continuation the backward
// scan already decided was optimal without re-querying the decision
// model at every intermediate stop.
func (w *Worker) rideTrip(journey []csa.ConnectionID, connID csa.ConnectionID) []csa.ConnectionID {
	cur := connID
	for {
		journey = append(journey, cur)
		label := w.pat.Labels[cur]
		if label.Branch != BranchStay {
			return journey
		}
		next := w.data.NextOnTrip(cur)
		if next == csa.NoConnection {
			return journey
		}
		cur = next
	}
}

func (w *Worker) waitingProfileEntry(stop csa.Vertex, t int64) ProfileEntry {
	return w.pat.waitingProfiles[stop].findAtOrAfter(t)
}

func (w *Worker) transferProfileEntry(stop csa.Vertex, t int64) ProfileEntry {
	return w.pat.transferProfiles[stop].findAtOrAfter(t)
}

func (w *Worker) boardAlternative(stop csa.Vertex, t int64) decision.Alternative {
	entry := w.waitingProfileEntry(stop, t)
	return decision.Alternative{Label: "board", PAT: patToFloat(entry.Evaluate(t, w.settings.WaitingCosts))}
}

func (w *Worker) transferAlternative(stop csa.Vertex, t int64) decision.Alternative {
	pat := w.pat.transferProfiles[stop].EvaluateWithDelay(t, 0, w.settings.WaitingCosts)
	return decision.Alternative{Label: "transfer", PAT: patToFloat(pat)}
}

// sampleUnits draws a single outcome index from a probability
// distribution using rng, falling back to the most probable index if the
// draw lands past the cumulative total. The worker calls it once per
// decision point for a whole demand entry, so all of the entry's units
// follow the drawn alternative; units are not split across alternatives.
func sampleUnits(probabilities []float64, rng *rand.Rand) int {
	draw := rng.Float64()
	cumulative := 0.0
	best := -1
	bestP := -1.0
	for i, p := range probabilities {
		cumulative += p
		if p > bestP {
			bestP, best = p, i
		}
		if draw <= cumulative {
			return i
		}
	}
	return best
}

// rebuildWithCleanedJourneys replaces each assigned group's journey with
// its cycle-free counterpart, in the order both slices were produced:
// accumulator.Groups and journeys/groups share the same relative order
// for their Assigned entries since Run appends to both in lockstep.
func rebuildWithCleanedJourneys(accumulator *AssignmentData, groups []Group, cleaned [][]csa.ConnectionID) *AssignmentData {
	if len(groups) == 0 {
		return accumulator
	}
	rebuilt := NewAssignmentData(len(accumulator.LoadUnits))
	cleanedIdx := 0
	for _, original := range accumulator.Groups {
		if original.Classification != Assigned {
			rebuilt.Record(original.Group, original.Classification)
			continue
		}
		g := original.Group
		if cleanedIdx < len(cleaned) {
			g.JourneyConnections = cleaned[cleanedIdx]
			cleanedIdx++
		}
		// A journey that loops back on its own origin entirely collapses
		// to an empty slice once the cycle remover cuts it; such a group
		// never actually reaches its destination.
		if len(g.JourneyConnections) == 0 {
			rebuilt.Record(g, Unassigned)
			continue
		}
		rebuilt.Record(g, Assigned)
	}
	util.InPlaceFilter(&rebuilt.Groups, func(ag AssignedGroup) bool { return ag.Group.Size > 0 })
	return rebuilt
}
