package demand

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/travigo/capacity-assignment/pkg/csa"
)

func writeDemandFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demand.csv")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("writing demand fixture: %v", err)
	}
	return path
}

func TestLoadEntriesResolvesStopNamesToVertices(t *testing.T) {
	path := writeDemandFile(t, "demandIndex,origin,destination,earliestDepartureTime,numberOfPassengers\n0,S,T,100,4\n")
	stopIndex := map[string]csa.Vertex{"S": 0, "T": 1}

	entries, err := LoadEntries(path, stopIndex)
	if err != nil {
		t.Fatalf("LoadEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	got := entries[0]
	want := Entry{DemandIndex: 0, Origin: 0, Destination: 1, EarliestDepartureTime: 100, NumberOfPassengers: 4}
	if got != want {
		t.Errorf("entries[0] = %+v, want %+v", got, want)
	}
}

func TestLoadEntriesRejectsUnknownStop(t *testing.T) {
	path := writeDemandFile(t, "demandIndex,origin,destination,earliestDepartureTime,numberOfPassengers\n0,S,Nowhere,100,4\n")
	stopIndex := map[string]csa.Vertex{"S": 0}

	if _, err := LoadEntries(path, stopIndex); err == nil {
		t.Error("expected an error for a destination not present in stopIndex")
	}
}

func TestLoadEntriesRejectsNegativePassengerCount(t *testing.T) {
	path := writeDemandFile(t, "demandIndex,origin,destination,earliestDepartureTime,numberOfPassengers\n0,S,T,100,-2\n")
	stopIndex := map[string]csa.Vertex{"S": 0, "T": 1}

	if _, err := LoadEntries(path, stopIndex); err == nil {
		t.Error("expected an error for a negative passenger count")
	}
}
