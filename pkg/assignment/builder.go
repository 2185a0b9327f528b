package assignment

import (
	"fmt"

	"github.com/travigo/capacity-assignment/pkg/csa"
)

// ConnectionLabel is the per-connection result of one backward scan: the
// PATs of every alternative considered while processing the connection,
// kept around for diagnostics and for the forward walk.
type ConnectionLabel struct {
	TripPAT            PerceivedTime
	TransferPAT        PerceivedTime
	FailureTransferPAT PerceivedTime
	HopOnPAT           PerceivedTime
	SkipPAT            PerceivedTime
	LoadFactor         float64

	// Branch records which of the three PAT-on-success alternatives won
	// for this connection, so the forward walk can ride a trip through
	// consecutive connections without re-deciding at every one.
	Branch Branch
}

// Branch identifies which alternative produced a connection's pat_on.
type Branch int

const (
	BranchStay Branch = iota
	BranchWalkOff
	BranchTransferOff
)

// BestPAT is the PAT of the better of boarding or skipping this connection.
func (l ConnectionLabel) BestPAT() PerceivedTime {
	return MinPAT(l.HopOnPAT, l.SkipPAT)
}

// PATData is the complete output of one backward scan for one destination
// under one load snapshot: every connection's label plus the finished
// waiting/transfer profiles at every stop, addressable by vertex.
//
// Both profiles are exported (the source only flattens the waiting
// profile into its PATProfileContainer); the forward walk needs to
// evaluate a transfer PAT at an arbitrary arrival time when a passenger
// has just walked into a stop, not only through a connection's
// precomputed label.
type PATData struct {
	Destination csa.Vertex
	Labels      []ConnectionLabel

	waitingProfiles  []Profile
	transferProfiles []Profile

	transferDistanceToTarget []PerceivedTime
}

// WaitingProfile returns the finished waiting-profile envelope at v.
func (d *PATData) WaitingProfile(v csa.Vertex) Profile {
	return d.waitingProfiles[v]
}

// TransferProfile returns the finished transfer-profile envelope at v.
func (d *PATData) TransferProfile(v csa.Vertex) Profile {
	return d.transferProfiles[v]
}

// DirectWalkPAT returns the PAT of being at v at absolute time t and
// walking directly from there to the destination: t plus the walking
// distance baked into transferDistanceToTarget, or Unreachable if no
// such edge (or identity) exists. Mirrors targetPAT's time-anchoring for
// the same reason: PAT is arrival time inflated by weights, not distance
// alone.
func (d *PATData) DirectWalkPAT(v csa.Vertex, t int64) PerceivedTime {
	distance := d.transferDistanceToTarget[v]
	if distance.Unreachable() {
		return Unreachable
	}
	return distance + PerceivedTime(t)
}

// Builder runs the lockstep backward connection scan described in
// original_source/Algorithms/Assignment/Capacities/ComputeLockstepPATs.h,
// reimplemented against PAT sentinels instead of floating infinities.
type Builder struct {
	data     *csa.Data
	reverse  *csa.TransferGraph
	settings Settings
}

func NewBuilder(data *csa.Data, reverseGraph *csa.TransferGraph, settings Settings) *Builder {
	return &Builder{data: data, reverse: reverseGraph, settings: settings}
}

// Build performs one full reverse scan of the connection array for
// destination, under the given load snapshot, and returns the resulting
// PATData. Build is safe to call concurrently for distinct destinations;
// it allocates all of its working state fresh and touches no shared
// mutable state beyond data/reverse/loads, all read-only.
func (b *Builder) Build(destination csa.Vertex, loads ConnectionLoadData) (*PATData, error) {
	numVertices := b.reverse.NumVertices()
	if int(destination) < 0 || int(destination) >= numVertices {
		return nil, fmt.Errorf("assignment: destination vertex %d out of range [0,%d)", destination, numVertices)
	}

	result := &PATData{
		Destination:              destination,
		Labels:                   make([]ConnectionLabel, b.data.NumberOfConnections()),
		waitingProfiles:          make([]Profile, numVertices),
		transferProfiles:         make([]Profile, numVertices),
		transferDistanceToTarget: make([]PerceivedTime, numVertices),
	}
	for v := range result.transferDistanceToTarget {
		result.transferDistanceToTarget[v] = Unreachable
	}
	if b.data.IsStop(destination) {
		result.transferDistanceToTarget[destination] = 0
	}
	for _, edge := range b.reverse.EdgesFrom(destination) {
		cost := PerceivedTime(float64(edge.TravelTime) * (1 + b.settings.WalkingCosts))
		if cost < result.transferDistanceToTarget[edge.To] {
			result.transferDistanceToTarget[edge.To] = cost
		}
	}

	stopLabels := make([]StopLabel, numVertices)
	tripPAT := make([]PerceivedTime, b.data.NumberOfTrips())
	for i := range tripPAT {
		tripPAT[i] = Unreachable
	}

	s := b.settings
	connections := b.data.Connections
	for i := len(connections) - 1; i >= 0; i-- {
		c := connections[i]
		u, v := c.DepartureStop.Vertex(), c.ArrivalStop.Vertex()

		skipEntry := stopLabels[u].GetSkipEntry(c.DepartureTime)

		rho := loads.RelativeLoad(int(c.ID))
		phi := LoadFactor(rho, s)
		enter := phi * s.CongestionEnterCosts
		travel := phi * float64(c.ArrivalTime-c.DepartureTime) * s.CongestionTravelCosts
		exit := phi * s.CongestionExitCosts
		extra := enter + travel + exit

		walkingPAT := b.targetPAT(result, v, c.ArrivalTime, extra)
		transferPAT := AddCost(stopLabels[v].EvaluateTransferWithDelay(c.ArrivalTime, s.MaxDelay, s.WaitingCosts), s.TransferCosts+extra)
		skipPAT := skipEntry.Evaluate(c.DepartureTime, s.WaitingCosts)

		travelPAT := AddCost(tripPAT[c.Trip], enter+travel)

		patOn := MinPAT(travelPAT, walkingPAT, transferPAT)
		tripPAT[c.Trip] = AddCost(patOn, -enter)
		branch := winningBranch(travelPAT, walkingPAT, transferPAT)

		if patOn.Unreachable() {
			result.Labels[c.ID] = ConnectionLabel{
				TripPAT: travelPAT, TransferPAT: transferPAT, HopOnPAT: Unreachable,
				SkipPAT: skipPAT, LoadFactor: phi, Branch: branch,
			}
			continue
		}

		failureTargetPAT := b.targetPAT(result, u, c.DepartureTime, 0)
		nextEntry := stopLabels[u].GetFailureEntry(c.DepartureTime)
		nextPAT := nextEntry.Evaluate(c.DepartureTime, s.WaitingCosts)
		strandingPAT := AddCost(patOn, (1+s.WaitingCosts)*s.StrandingWaitingTime)
		failurePAT := MinPAT(failureTargetPAT, nextPAT, strandingPAT)

		p := BoardingProbability(loads.Load[c.ID], loads.Capacity[c.ID])
		expectedPAT := expectedBoardingPAT(patOn, failurePAT, s.FailureCosts, p)

		result.Labels[c.ID] = ConnectionLabel{
			TripPAT:            travelPAT,
			TransferPAT:        transferPAT,
			FailureTransferPAT: failureTargetPAT,
			HopOnPAT:           expectedPAT,
			SkipPAT:            skipPAT,
			LoadFactor:         phi,
			Branch:             branch,
		}

		if expectedPAT.Unreachable() || expectedPAT >= skipPAT {
			continue
		}

		stopLabels[u].AddWaitingEntry(ProfileEntry{DepartureTime: c.DepartureTime, OriginConnection: c.ID, PAT: expectedPAT}, s.WaitingCosts)

		selfBuffer := b.transferBuffer(u, u)
		stopLabels[u].AddTransferEntry(c.DepartureTime, c.ID, expectedPAT, 0, selfBuffer, s.WalkingCosts, s.WaitingCosts)
		for _, edge := range b.reverse.EdgesFrom(u) {
			buffer := b.transferBuffer(u, edge.To)
			stopLabels[edge.To].AddTransferEntry(c.DepartureTime, c.ID, expectedPAT, edge.TravelTime, buffer, s.WalkingCosts, s.WaitingCosts)
		}
	}

	for v := 0; v < numVertices; v++ {
		result.waitingProfiles[v] = stopLabels[v].GetWaitingProfile()
		result.transferProfiles[v] = stopLabels[v].GetTransferProfile()
	}
	return result, nil
}

// targetPAT is the PAT of being at v at absolute time t and walking
// directly to the destination from there, with an additional fixed cost
// on top of the walking cost already baked into transferDistanceToTarget:
// t + distance[v] + extra. Mirrors
// original_source/Algorithms/Assignment/Capacities/ComputeLockstepPATs.h's
// targetPAT(connection, loadTerm) (t = connection arrival time) and
// targetPAT(stop, time) (t = the time already at hand) — PAT is arrival
// time inflated by weights, so the time argument carries the result, not
// the distance alone.
func (b *Builder) targetPAT(result *PATData, v csa.Vertex, t int64, extra float64) PerceivedTime {
	distance := AddCost(result.transferDistanceToTarget[v], extra)
	if distance.Unreachable() {
		return Unreachable
	}
	return distance + PerceivedTime(t)
}

// transferBuffer is the minimum-transfer-time buffer applied when
// boarding at origin after walking in from neighbor. With
// UseTransferBufferTimes the neighbor's own buffer is used instead of
// origin's, matching the optional mode in spec §4.1.
func (b *Builder) transferBuffer(origin, neighbor csa.Vertex) int64 {
	if b.settings.UseTransferBufferTimes && b.data.IsStop(neighbor) {
		return b.data.MinTransferTime(csa.StopID(neighbor))
	}
	if b.data.IsStop(origin) {
		return b.data.MinTransferTime(csa.StopID(origin))
	}
	return 0
}

// winningBranch returns which of the three pat_on alternatives is
// smallest, preferring to stay on the trip on ties since that is the
// cheaper operation for the forward walk to replay.
func winningBranch(travelPAT, walkingPAT, transferPAT PerceivedTime) Branch {
	branch := BranchStay
	best := travelPAT
	if walkingPAT < best {
		branch, best = BranchWalkOff, walkingPAT
	}
	if transferPAT < best {
		branch = BranchTransferOff
	}
	return branch
}

// expectedBoardingPAT blends the success branch (weight p) with the
// failure branch (weight 1-p). p==1 short-circuits to patOn so an
// unreachable failurePAT never poisons an uncongested connection.
func expectedBoardingPAT(patOn, failurePAT PerceivedTime, failureCost, p float64) PerceivedTime {
	if p >= 1 {
		return patOn
	}
	failureTerm := AddCost(failurePAT, failureCost)
	if failureTerm.Unreachable() {
		return Unreachable
	}
	return PerceivedTime(p*float64(patOn) + (1-p)*float64(failureTerm))
}
