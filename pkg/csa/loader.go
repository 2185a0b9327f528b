package csa

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// These row shapes are the external Timetable Input interface: timetable
// ingestion and serialization are out of scope for the assignment core, so
// this loader is a thin adapter, not a general-purpose importer.

type stopRow struct {
	ID              string `csv:"id"`
	MinTransferTime int64  `csv:"minTransferTime"`
}

type tripRow struct {
	ID string `csv:"id"`
}

type connectionRow struct {
	ID            string `csv:"id"`
	DepartureStop string `csv:"departureStop"`
	ArrivalStop   string `csv:"arrivalStop"`
	DepartureTime int64  `csv:"departureTime"`
	ArrivalTime   int64  `csv:"arrivalTime"`
	TripID        string `csv:"tripId"`
}

type transferRow struct {
	FromStop   string `csv:"fromStop"`
	ToStop     string `csv:"toStop"`
	TravelTime int64  `csv:"travelTime"`
}

// LoadData reads stops, trips, connections and a walking-transfer graph
// from CSV files and returns the timetable view plus the transfer graph's
// transpose: an edge u->v in the returned graph means a passenger can walk
// from v to u, which is the orientation the backward PAT scan needs to
// answer "which stops can walk to u" by calling EdgesFrom(u). Stops, trips
// and connections are numbered by their position in their file
// (0-indexed), matching the contiguous [0, N) id space the engine assumes;
// the id columns of the CSV files are only matched against each other.
func LoadData(stopsPath, tripsPath, connectionsPath, transfersPath string) (*Data, *TransferGraph, map[string]Vertex, error) {
	var stopRows []stopRow
	if err := readCSV(stopsPath, &stopRows); err != nil {
		return nil, nil, nil, fmt.Errorf("csa: loading stops: %w", err)
	}
	var tripRows []tripRow
	if err := readCSV(tripsPath, &tripRows); err != nil {
		return nil, nil, nil, fmt.Errorf("csa: loading trips: %w", err)
	}
	var connectionRows []connectionRow
	if err := readCSV(connectionsPath, &connectionRows); err != nil {
		return nil, nil, nil, fmt.Errorf("csa: loading connections: %w", err)
	}
	var transferRows []transferRow
	if transfersPath != "" {
		if err := readCSV(transfersPath, &transferRows); err != nil {
			return nil, nil, nil, fmt.Errorf("csa: loading transfers: %w", err)
		}
	}

	stopIndex := make(map[string]StopID, len(stopRows))
	stops := make([]Stop, len(stopRows))
	for i, row := range stopRows {
		stopIndex[row.ID] = StopID(i)
		stops[i] = Stop{ID: StopID(i), MinTransferTime: row.MinTransferTime}
	}

	tripIndex := make(map[string]TripID, len(tripRows))
	trips := make([]Trip, len(tripRows))
	for i, row := range tripRows {
		tripIndex[row.ID] = TripID(i)
		trips[i] = Trip{ID: TripID(i)}
	}

	connections := make([]Connection, len(connectionRows))
	for i, row := range connectionRows {
		departureStop, ok := stopIndex[row.DepartureStop]
		if !ok {
			return nil, nil, nil, fmt.Errorf("csa: connection %s references unknown departure stop %q", row.ID, row.DepartureStop)
		}
		arrivalStop, ok := stopIndex[row.ArrivalStop]
		if !ok {
			return nil, nil, nil, fmt.Errorf("csa: connection %s references unknown arrival stop %q", row.ID, row.ArrivalStop)
		}
		trip, ok := tripIndex[row.TripID]
		if !ok {
			return nil, nil, nil, fmt.Errorf("csa: connection %s references unknown trip %q", row.ID, row.TripID)
		}
		if row.DepartureTime > row.ArrivalTime {
			return nil, nil, nil, fmt.Errorf("csa: connection %s has departureTime after arrivalTime", row.ID)
		}
		connections[i] = Connection{
			ID:            ConnectionID(i),
			DepartureStop: departureStop,
			ArrivalStop:   arrivalStop,
			DepartureTime: row.DepartureTime,
			ArrivalTime:   row.ArrivalTime,
			Trip:          trip,
		}
	}

	data, err := NewData(stops, trips, connections)
	if err != nil {
		return nil, nil, nil, err
	}

	graph := NewTransferGraph(len(stops))
	for _, row := range transferRows {
		from, ok := stopIndex[row.FromStop]
		if !ok {
			return nil, nil, nil, fmt.Errorf("csa: transfer edge references unknown stop %q", row.FromStop)
		}
		to, ok := stopIndex[row.ToStop]
		if !ok {
			return nil, nil, nil, fmt.Errorf("csa: transfer edge references unknown stop %q", row.ToStop)
		}
		graph.AddEdge(from.Vertex(), to.Vertex(), row.TravelTime)
	}

	vertexIndex := make(map[string]Vertex, len(stopIndex))
	for id, stop := range stopIndex {
		vertexIndex[id] = stop.Vertex()
	}

	return data, graph.Reverse(), vertexIndex, nil
}

func readCSV(path string, out interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return gocsv.UnmarshalFile(file, out)
}
