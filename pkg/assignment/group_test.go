package assignment

import (
	"testing"

	"github.com/travigo/capacity-assignment/pkg/csa"
)

func TestAssignmentDataRecordAssignedTracksLoadUnits(t *testing.T) {
	a := NewAssignmentData(3)
	g := Group{DemandIndex: 1, Size: 4, JourneyConnections: []csa.ConnectionID{0, 2}}
	a.Record(g, Assigned)

	if a.LoadUnits[0] != 4 || a.LoadUnits[1] != 0 || a.LoadUnits[2] != 4 {
		t.Errorf("LoadUnits = %v, want [4 0 4]", a.LoadUnits)
	}
	if len(a.GroupsPerConnection[0]) != 1 || len(a.GroupsPerConnection[2]) != 1 {
		t.Errorf("expected the group recorded against connections 0 and 2")
	}
	if len(a.Groups) != 1 || a.Groups[0].Classification != Assigned {
		t.Errorf("expected one Assigned group, got %+v", a.Groups)
	}
}

func TestAssignmentDataRecordUnassignedDoesNotTouchLoad(t *testing.T) {
	a := NewAssignmentData(2)
	g := Group{DemandIndex: 1, Size: 9, JourneyConnections: []csa.ConnectionID{0}}
	a.Record(g, Unassigned)

	if a.LoadUnits[0] != 0 {
		t.Errorf("Unassigned groups must not contribute load, got %v", a.LoadUnits[0])
	}
	if a.UnassignedCount() != 1 {
		t.Errorf("UnassignedCount() = %d, want 1", a.UnassignedCount())
	}
	if a.DirectWalkingCount() != 0 {
		t.Errorf("DirectWalkingCount() = %d, want 0", a.DirectWalkingCount())
	}
}

func TestAssignmentDataMergeCombinesLoadsAndGroups(t *testing.T) {
	a := NewAssignmentData(2)
	a.Record(Group{DemandIndex: 0, Size: 3, JourneyConnections: []csa.ConnectionID{0}}, Assigned)

	b := NewAssignmentData(2)
	b.Record(Group{DemandIndex: 1, Size: 5, JourneyConnections: []csa.ConnectionID{0}}, Assigned)
	b.Record(Group{DemandIndex: 2, Size: 1, JourneyConnections: nil}, DirectWalking)

	a.Merge(b)

	if a.LoadUnits[0] != 8 {
		t.Errorf("merged LoadUnits[0] = %v, want 8", a.LoadUnits[0])
	}
	if len(a.Groups) != 3 {
		t.Errorf("merged Groups length = %d, want 3", len(a.Groups))
	}
	if a.DirectWalkingCount() != 1 {
		t.Errorf("DirectWalkingCount() after merge = %d, want 1", a.DirectWalkingCount())
	}
	if len(a.GroupsPerConnection[0]) != 2 {
		t.Errorf("GroupsPerConnection[0] should combine both workers' groups, got %d", len(a.GroupsPerConnection[0]))
	}
}
