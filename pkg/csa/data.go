package csa

import "fmt"

// Stop is a timetable stop: an identifier in [0, NumberOfStops) plus a
// minimum transfer time, non-negative, in the same time unit as connections.
type Stop struct {
	ID              StopID
	MinTransferTime int64
}

// Trip identifies connections that belong together along one vehicle run.
type Trip struct {
	ID TripID
}

// Connection is the atomic unit of travel: a vehicle departing
// DepartureStop at DepartureTime and arriving at ArrivalStop at ArrivalTime
// along Trip.
type Connection struct {
	ID             ConnectionID
	DepartureStop  StopID
	ArrivalStop    StopID
	DepartureTime  int64
	ArrivalTime    int64
	Trip           TripID
}

// Data is the read-only timetable view the assignment engine scans:
// stops, trips, and connections sorted ascending by departure time.
type Data struct {
	stops       []Stop
	trips       []Trip
	Connections []Connection

	nextOnTrip []ConnectionID
}

// NoConnection is the sentinel returned by NextOnTrip when a connection is
// the last one of its trip.
const NoConnection ConnectionID = -1

func NewData(stops []Stop, trips []Trip, connections []Connection) (*Data, error) {
	data := &Data{stops: stops, trips: trips, Connections: connections}
	if err := data.validateSorted(); err != nil {
		return nil, err
	}
	data.buildTripChain()
	return data, nil
}

// buildTripChain links each connection to the next connection of the same
// trip, in departure-time order. Connections are already globally sorted
// by departure time, so grouping by trip while preserving array order
// preserves time order within the group too.
func (d *Data) buildTripChain() {
	d.nextOnTrip = make([]ConnectionID, len(d.Connections))
	for i := range d.nextOnTrip {
		d.nextOnTrip[i] = NoConnection
	}
	last := make(map[TripID]ConnectionID, len(d.trips))
	for _, c := range d.Connections {
		if prev, ok := last[c.Trip]; ok {
			d.nextOnTrip[prev] = c.ID
		}
		last[c.Trip] = c.ID
	}
}

// NextOnTrip returns the connection immediately following c along the
// same trip, or NoConnection if c is the trip's last connection.
func (d *Data) NextOnTrip(c ConnectionID) ConnectionID {
	return d.nextOnTrip[c]
}

func (d *Data) validateSorted() error {
	for i := 1; i < len(d.Connections); i++ {
		prev, cur := d.Connections[i-1], d.Connections[i]
		if cur.DepartureTime < prev.DepartureTime {
			return fmt.Errorf("csa: connections are not sorted ascending by departure time at index %d (%d after %d)", i, cur.DepartureTime, prev.DepartureTime)
		}
	}
	return nil
}

func (d *Data) NumberOfStops() int {
	return len(d.stops)
}

func (d *Data) NumberOfTrips() int {
	return len(d.trips)
}

func (d *Data) NumberOfConnections() int {
	return len(d.Connections)
}

func (d *Data) IsStop(v Vertex) bool {
	return v >= 0 && int(v) < len(d.stops)
}

func (d *Data) MinTransferTime(stop StopID) int64 {
	if int(stop) < 0 || int(stop) >= len(d.stops) {
		return 0
	}
	return d.stops[stop].MinTransferTime
}

func (d *Data) Stops() []Stop {
	return d.stops
}

func (d *Data) ConnectionIDs() []ConnectionID {
	ids := make([]ConnectionID, len(d.Connections))
	for i := range d.Connections {
		ids[i] = ConnectionID(i)
	}
	return ids
}
