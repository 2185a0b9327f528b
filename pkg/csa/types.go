// Package csa provides the read-only connection-scan timetable view: stops,
// trips, connections sorted by departure time, and the walking/transfer
// graph. Apart from LoadData, a thin CSV reader, ingestion and
// serialization of timetable data live outside this package; csa
// otherwise only models the in-memory shape the assignment engine scans.
package csa

// Vertex identifies a node of the transfer graph. Stops occupy the range
// [0, NumberOfStops); vertices beyond that range are pure walking nodes
// (junctions) that are never a connection's departure or arrival stop.
type Vertex int

// StopID is a Vertex known to be a timetable stop.
type StopID Vertex

// TripID identifies a trip; connections belonging to a trip are consecutive
// in time along that trip.
type TripID int

// ConnectionID indexes Data.Connections.
type ConnectionID int

const NoVertex Vertex = -1

func (s StopID) Vertex() Vertex {
	return Vertex(s)
}
