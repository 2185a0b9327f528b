package assignment

import (
	"math/rand"
	"testing"

	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
)

func newOptimalWorker(t *testing.T, data *csa.Data, pat *PATData) *Worker {
	t.Helper()
	settings := DefaultSettings()
	model, err := NewDecisionModel(settings)
	if err != nil {
		t.Fatalf("NewDecisionModel: %v", err)
	}
	return NewWorker(data, pat, settings, model, rand.New(rand.NewSource(1)), NewStopRevisitCycleRemover(data))
}

// A passenger whose origin has no vehicle connection at all, but a cheap
// direct walk to the destination, must be classified DirectWalking with
// an empty journey rather than Unassigned: the walk alternative is the
// only finite one, so the decision model must pick it regardless of how
// expensive the unrelated vehicle trip elsewhere in the network is.
func TestWorkerRouteChoosesDirectWalkWhenNoVehicleReachesOrigin(t *testing.T) {
	// Stop 0 (origin) has no outgoing connection; stop 1 -> stop 2
	// (destination) is served by a trip that never visits stop 0.
	conns := []csa.Connection{
		{ID: 0, DepartureStop: 1, ArrivalStop: 2, DepartureTime: 100, ArrivalTime: 110, Trip: 0},
	}
	data := buildData(t, 3, []csa.Trip{{ID: 0}}, conns)
	reverse := csa.NewTransferGraph(3)
	reverse.AddEdge(2, 0, 3) // stop 0 can walk to the destination in 3.

	b := NewBuilder(data, reverse, DefaultSettings())
	pat, err := b.Build(2, uncongestedLoads(1))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := newOptimalWorker(t, data, pat)
	result := w.Run([]demand.Entry{
		{DemandIndex: 0, Origin: 0, Destination: 2, EarliestDepartureTime: 0, NumberOfPassengers: 1},
	})

	if result.DirectWalkingCount() != 1 {
		t.Fatalf("DirectWalkingCount() = %d, want 1", result.DirectWalkingCount())
	}
	if result.UnassignedCount() != 0 {
		t.Errorf("UnassignedCount() = %d, want 0", result.UnassignedCount())
	}
	for _, units := range result.LoadUnits {
		if units != 0 {
			t.Errorf("a direct-walking passenger must not load any connection, got %v", result.LoadUnits)
		}
	}
}

// A passenger with no way at all to reach the destination - no vehicle
// path and no walking edge - must be Unassigned rather than silently
// dropped or crashing the worker.
func TestWorkerRouteUnassignedWhenNothingReachesDestination(t *testing.T) {
	data := buildData(t, 2, nil, nil)
	reverse := csa.NewTransferGraph(2)

	b := NewBuilder(data, reverse, DefaultSettings())
	pat, err := b.Build(1, uncongestedLoads(0))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := newOptimalWorker(t, data, pat)
	result := w.Run([]demand.Entry{
		{DemandIndex: 0, Origin: 0, Destination: 1, EarliestDepartureTime: 0, NumberOfPassengers: 5},
	})

	if result.UnassignedCount() != 1 {
		t.Fatalf("UnassignedCount() = %d, want 1", result.UnassignedCount())
	}
	if result.DirectWalkingCount() != 0 {
		t.Errorf("DirectWalkingCount() = %d, want 0", result.DirectWalkingCount())
	}
}

// Boarding a connection whose label says to stay on the trip must
// replay through every subsequent connection of that trip in one
// rideTrip call, producing a single journey that spans both and loads
// both connections for the same group.
func TestWorkerRouteRidesThroughChainedConnections(t *testing.T) {
	conns := []csa.Connection{
		{ID: 0, DepartureStop: 0, ArrivalStop: 1, DepartureTime: 0, ArrivalTime: 10, Trip: 0},
		{ID: 1, DepartureStop: 1, ArrivalStop: 2, DepartureTime: 10, ArrivalTime: 20, Trip: 0},
	}
	data := buildData(t, 3, []csa.Trip{{ID: 0}}, conns)
	reverse := csa.NewTransferGraph(3)

	b := NewBuilder(data, reverse, DefaultSettings())
	pat, err := b.Build(2, uncongestedLoads(2))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := newOptimalWorker(t, data, pat)
	result := w.Run([]demand.Entry{
		{DemandIndex: 0, Origin: 0, Destination: 2, EarliestDepartureTime: 0, NumberOfPassengers: 2},
	})

	if len(result.Groups) != 1 || result.Groups[0].Classification != Assigned {
		t.Fatalf("Groups = %+v, want exactly one Assigned group", result.Groups)
	}
	journey := result.Groups[0].Group.JourneyConnections
	want := []csa.ConnectionID{0, 1}
	if len(journey) != len(want) || journey[0] != want[0] || journey[1] != want[1] {
		t.Errorf("journey = %v, want %v", journey, want)
	}
	if result.LoadUnits[0] != 2 || result.LoadUnits[1] != 2 {
		t.Errorf("LoadUnits = %v, want [2 2]", result.LoadUnits)
	}
}

// A demand entry with zero (or negative) passengers contributes no load
// and is skipped entirely: it is not even recorded as Unassigned, since
// it was never routed.
func TestWorkerRouteSkipsEntriesWithNoPassengers(t *testing.T) {
	conns := []csa.Connection{
		{ID: 0, DepartureStop: 0, ArrivalStop: 1, DepartureTime: 0, ArrivalTime: 10, Trip: 0},
	}
	data := buildData(t, 2, []csa.Trip{{ID: 0}}, conns)
	reverse := csa.NewTransferGraph(2)

	b := NewBuilder(data, reverse, DefaultSettings())
	pat, err := b.Build(1, uncongestedLoads(1))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	w := newOptimalWorker(t, data, pat)
	result := w.Run([]demand.Entry{
		{DemandIndex: 0, Origin: 0, Destination: 1, EarliestDepartureTime: 0, NumberOfPassengers: 0},
	})

	if len(result.Groups) != 0 {
		t.Errorf("Groups = %+v, want no recorded groups for a zero-passenger entry", result.Groups)
	}
}
