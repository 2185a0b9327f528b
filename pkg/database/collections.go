package database

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createRunIndexes()
	createConnectionLoadIndexes()
}

func createRunIndexes() {
	runsCollection := GetCollection("assignment_runs")
	index := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "runid", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "completedat", Value: 1}},
		},
	}

	_, err := runsCollection.Indexes().CreateMany(context.Background(), index, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("creating assignment_runs index")
	}
}

func createConnectionLoadIndexes() {
	loadsCollection := GetCollection("connection_loads")
	index := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "runid", Value: 1},
				{Key: "connectionid", Value: 1},
			},
		},
	}

	_, err := loadsCollection.Indexes().CreateMany(context.Background(), index, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("creating connection_loads index")
	}
}

// RunSummary is the document saved to assignment_runs once a Coordinator
// run finishes: the same totals the CSV statistics writer and the live
// status API report, kept here for historical querying.
type RunSummary struct {
	RunID         string    `bson:"runid"`
	StartedAt     time.Time `bson:"startedat"`
	CompletedAt   time.Time `bson:"completedat"`
	Iterations    int       `bson:"iterations"`
	Converged     bool      `bson:"converged"`
	Unassigned    int       `bson:"unassigned"`
	DirectWalking int       `bson:"directwalking"`
	RemovedCycles int       `bson:"removedcycles"`
}

// ConnectionLoadRecord is one row of connection_loads: the final
// smoothed load the coordinator settled on for a single connection of a
// named run.
type ConnectionLoadRecord struct {
	RunID        string  `bson:"runid"`
	ConnectionID int     `bson:"connectionid"`
	Load         float64 `bson:"load"`
	Capacity     float64 `bson:"capacity"`
}

// SaveRunSummary upserts summary by RunID, so re-saving a resumed run
// overwrites its previous totals instead of duplicating a document.
func SaveRunSummary(summary RunSummary) error {
	collection := GetCollection("assignment_runs")
	_, err := collection.ReplaceOne(
		context.Background(),
		bson.D{{Key: "runid", Value: summary.RunID}},
		summary,
		options.Replace().SetUpsert(true),
	)
	return err
}

// SaveConnectionLoads bulk-inserts one load record per connection for
// runID. Callers re-saving the same runID should drop its prior records
// first; this does not deduplicate on insert.
func SaveConnectionLoads(runID string, loads, capacity []float64) error {
	if len(loads) == 0 {
		return nil
	}

	documents := make([]interface{}, len(loads))
	for connectionID, load := range loads {
		documents[connectionID] = ConnectionLoadRecord{
			RunID:        runID,
			ConnectionID: connectionID,
			Load:         load,
			Capacity:     capacity[connectionID],
		}
	}

	collection := GetCollection("connection_loads")
	_, err := collection.InsertMany(context.Background(), documents)
	return err
}
