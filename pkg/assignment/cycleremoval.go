package assignment

import "github.com/travigo/capacity-assignment/pkg/csa"

// CycleRemover is the external collaborator interface for the cycle
// removal post-pass named in §2 component 7: given a batch of journeys,
// return their loop-free counterparts. The worker depends on this
// interface, not a concrete type, so a different pass can be
// substituted without touching the forward walk.
type CycleRemover interface {
	Remove(journeys [][]csa.ConnectionID) [][]csa.ConnectionID
	LastRemovedCount() int
	LastRemovedConnections() []csa.ConnectionID
}

// StopRevisitCycleRemover removes loops within a journey by detecting a
// revisited stop: once a stop reappears, every connection between the
// first visit and the revisit formed a loop and is cut out.
type StopRevisitCycleRemover struct {
	data               *csa.Data
	lastRemoved        int
	lastRemovedConnIDs []csa.ConnectionID
}

func NewStopRevisitCycleRemover(data *csa.Data) *StopRevisitCycleRemover {
	return &StopRevisitCycleRemover{data: data}
}

func (r *StopRevisitCycleRemover) Remove(journeys [][]csa.ConnectionID) [][]csa.ConnectionID {
	cleaned := make([][]csa.ConnectionID, len(journeys))
	r.lastRemoved = 0
	r.lastRemovedConnIDs = nil
	for i, journey := range journeys {
		cleaned[i] = r.removeOne(journey)
	}
	return cleaned
}

// removeOne repeatedly finds the first stop revisited by journey and
// excises the whole loop it closes (including the connection whose
// arrival caused the revisit), then rescans the shortened journey. Each
// pass strictly shortens journey whenever a loop is found, so this
// always terminates; unlike patching the cursor in place and rescanning
// the unmodified journey, re-deriving stops from the current journey on
// every pass guarantees the cut loop can never be walked into again.
func (r *StopRevisitCycleRemover) removeOne(journey []csa.ConnectionID) []csa.ConnectionID {
	if len(journey) <= 1 {
		return journey
	}

	for {
		stops := make([]csa.StopID, len(journey)+1)
		stops[0] = r.data.Connections[journey[0]].DepartureStop
		for i, connID := range journey {
			stops[i+1] = r.data.Connections[connID].ArrivalStop
		}

		visitedAt := make(map[csa.StopID]int, len(journey)+1)
		visitedAt[stops[0]] = 0

		cutFrom := -1
		cutTo := -1
		for i := 0; i < len(journey); i++ {
			nextStop := stops[i+1]
			if firstSeen, ok := visitedAt[nextStop]; ok {
				cutFrom, cutTo = firstSeen, i+1
				break
			}
			visitedAt[nextStop] = i + 1
		}

		if cutFrom < 0 {
			return journey
		}

		r.lastRemoved += cutTo - cutFrom
		r.lastRemovedConnIDs = append(r.lastRemovedConnIDs, journey[cutFrom:cutTo]...)

		remaining := make([]csa.ConnectionID, 0, len(journey)-(cutTo-cutFrom))
		remaining = append(remaining, journey[:cutFrom]...)
		remaining = append(remaining, journey[cutTo:]...)
		journey = remaining

		if len(journey) <= 1 {
			return journey
		}
	}
}

func (r *StopRevisitCycleRemover) LastRemovedCount() int {
	return r.lastRemoved
}

// LastRemovedConnections returns the connection ids cut from the most
// recent Remove call, the core's getRemovedCycleConnections operation.
func (r *StopRevisitCycleRemover) LastRemovedConnections() []csa.ConnectionID {
	return r.lastRemovedConnIDs
}
