// Package demand models the travel-demand table the assignment coordinator
// distributes passengers from: origin, destination, earliest-departure
// window, and passenger count per entry.
package demand

import "github.com/travigo/capacity-assignment/pkg/csa"

// Entry is one row of the demand table. Input is not required to be sorted;
// the coordinator sorts by destination and by time internally.
type Entry struct {
	DemandIndex           int
	Origin                csa.Vertex
	Destination           csa.Vertex
	EarliestDepartureTime int64
	NumberOfPassengers    int
}
