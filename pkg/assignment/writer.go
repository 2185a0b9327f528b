package assignment

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
)

type connectionWithLoadRow struct {
	Connection int     `csv:"connection"`
	Departure  int64   `csv:"departure"`
	Arrival    int64   `csv:"arrival"`
	Load       float64 `csv:"load"`
}

// WriteConnectionsWithLoad writes the core's per-connection expected
// passenger count, the getPassengerCountsPerConnection output.
func WriteConnectionsWithLoad(path string, data *csa.Data, loads []float64) error {
	rows := make([]connectionWithLoadRow, len(data.Connections))
	for i, c := range data.Connections {
		rows[i] = connectionWithLoadRow{
			Connection: int(c.ID),
			Departure:  c.DepartureTime,
			Arrival:    c.ArrivalTime,
			Load:       loads[c.ID],
		}
	}
	return writeCSV(path, &rows)
}

type groupRow struct {
	GroupID     int    `csv:"groupId"`
	DemandIndex int    `csv:"demandIndex"`
	Size        int    `csv:"size"`
	Connections string `csv:"connections"`
}

// WriteGroups writes one row per group, in the order the coordinator
// produced them.
func WriteGroups(path string, groups []AssignedGroup) error {
	rows := make([]groupRow, len(groups))
	for i, g := range groups {
		ids := make([]string, len(g.Group.JourneyConnections))
		for j, c := range g.Group.JourneyConnections {
			ids[j] = strconv.Itoa(int(c))
		}
		rows[i] = groupRow{
			GroupID:     i,
			DemandIndex: g.Group.DemandIndex,
			Size:        g.Group.Size,
			Connections: strings.Join(ids, ";"),
		}
	}
	return writeCSV(path, &rows)
}

// WriteAssignment is an alias over WriteGroups scoped to assigned groups
// only, matching the core's getAssignmentData/writeAssignment pairing in
// spec.md §6: getAssignmentData exposes every group, writeAssignment
// serializes the subset that reached a destination.
func WriteAssignment(path string, assignment *AssignmentData) error {
	assigned := make([]AssignedGroup, 0, len(assignment.Groups))
	for _, g := range assignment.Groups {
		if g.Classification == Assigned {
			assigned = append(assigned, g)
		}
	}
	return WriteGroups(path, assigned)
}

type journeyRow struct {
	DemandIndex    int    `csv:"demandIndex"`
	Origin         int    `csv:"origin"`
	Destination    int    `csv:"destination"`
	Classification string `csv:"classification"`
	Connections    string `csv:"connections"`
}

// WriteAssignedJourneys writes, for every demand entry, its resolved
// journey and classification, cross-referenced against demand to
// recover origin/destination for entries the assignment data alone does
// not carry.
func WriteAssignedJourneys(path string, assignment *AssignmentData, entries []demand.Entry) error {
	byIndex := make(map[int]demand.Entry, len(entries))
	for _, e := range entries {
		byIndex[e.DemandIndex] = e
	}

	rows := make([]journeyRow, 0, len(assignment.Groups))
	for _, g := range assignment.Groups {
		entry, ok := byIndex[g.Group.DemandIndex]
		if !ok {
			continue
		}
		ids := make([]string, len(g.Group.JourneyConnections))
		for j, c := range g.Group.JourneyConnections {
			ids[j] = strconv.Itoa(int(c))
		}
		rows = append(rows, journeyRow{
			DemandIndex:    entry.DemandIndex,
			Origin:         int(entry.Origin),
			Destination:    int(entry.Destination),
			Classification: classificationName(g.Classification),
			Connections:    strings.Join(ids, ";"),
		})
	}
	return writeCSV(path, &rows)
}

func classificationName(c Classification) string {
	switch c {
	case Assigned:
		return "assigned"
	case Unassigned:
		return "unassigned"
	case DirectWalking:
		return "directWalking"
	default:
		return "unknown"
	}
}

type statisticsRow struct {
	Prefix              string  `csv:"prefix"`
	Iteration           int     `csv:"iteration"`
	Unfinished          int     `csv:"unfinished"`
	Overloaded          int     `csv:"overloaded"`
	MaxRelativeOverload float64 `csv:"maxRelativeOverload"`
	MaxRelativeDiff     float64 `csv:"maxRelativeDiff"`
}

// WriteConnectionStatistics writes the per-iteration diagnostics
// accumulated across a run, one row per iteration, tagged with prefix so
// multiple runs can be concatenated into one file.
func WriteConnectionStatistics(path string, prefix string, iterations []IterationStats) error {
	rows := make([]statisticsRow, len(iterations))
	for i, s := range iterations {
		rows[i] = statisticsRow{
			Prefix:              prefix,
			Iteration:           s.Iteration,
			Unfinished:          s.Unfinished,
			Overloaded:          s.Overloaded,
			MaxRelativeOverload: s.MaxRelativeOverload,
			MaxRelativeDiff:     s.MaxRelativeDiff,
		}
	}
	return writeCSV(path, &rows)
}

func writeCSV(path string, rows interface{}) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("assignment: creating %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(rows, file); err != nil {
		return fmt.Errorf("assignment: writing %s: %w", path, err)
	}
	return nil
}
