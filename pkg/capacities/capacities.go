// Package capacities loads the per-connection capacity vector, the
// external Capacity Input interface.
package capacities

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

type row struct {
	ConnectionID int     `csv:"connectionId"`
	Capacity     float64 `csv:"capacity"`
}

// Load reads cap[c] from a CSV file and validates its length against
// numConnections, the input-shape check required before the core runs.
func Load(path string, numConnections int) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("capacities: %w", err)
	}
	defer file.Close()

	var rows []row
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, fmt.Errorf("capacities: %w", err)
	}

	capacity := make([]float64, numConnections)
	seen := make([]bool, numConnections)
	for _, r := range rows {
		if r.ConnectionID < 0 || r.ConnectionID >= numConnections {
			return nil, fmt.Errorf("capacities: connection id %d out of range [0,%d)", r.ConnectionID, numConnections)
		}
		if r.Capacity <= 0 {
			return nil, fmt.Errorf("capacities: connection %d has non-positive capacity %f", r.ConnectionID, r.Capacity)
		}
		capacity[r.ConnectionID] = r.Capacity
		seen[r.ConnectionID] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("capacities: missing capacity for connection %d", i)
		}
	}
	return capacity, nil
}
