package demand

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/travigo/capacity-assignment/pkg/csa"
)

type row struct {
	DemandIndex           int    `csv:"demandIndex"`
	Origin                string `csv:"origin"`
	Destination           string `csv:"destination"`
	EarliestDepartureTime int64  `csv:"earliestDepartureTime"`
	NumberOfPassengers    int    `csv:"numberOfPassengers"`
}

// LoadEntries reads the demand table from a CSV file. stopIndex resolves
// the origin/destination columns (stop identifiers from the timetable
// input) to vertex ids.
func LoadEntries(path string, stopIndex map[string]csa.Vertex) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}
	defer file.Close()

	var rows []row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("demand: %w", err)
	}

	entries := make([]Entry, len(rows))
	for i, r := range rows {
		origin, ok := stopIndex[r.Origin]
		if !ok {
			return nil, fmt.Errorf("demand: entry %d references unknown origin %q", i, r.Origin)
		}
		destination, ok := stopIndex[r.Destination]
		if !ok {
			return nil, fmt.Errorf("demand: entry %d references unknown destination %q", i, r.Destination)
		}
		if r.NumberOfPassengers < 0 {
			return nil, fmt.Errorf("demand: entry %d has negative passenger count", i)
		}
		entries[i] = Entry{
			DemandIndex:           r.DemandIndex,
			Origin:                origin,
			Destination:           destination,
			EarliestDepartureTime: r.EarliestDepartureTime,
			NumberOfPassengers:    r.NumberOfPassengers,
		}
	}
	return entries, nil
}
