// Package database provides the optional MongoDB sink a completed (or
// checkpointed) assignment run can be written to, for deployments that
// want the result history queryable instead of living only in CSV
// files on disk.
package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/travigo/capacity-assignment/pkg/util"
)

type MongoInstance struct {
	Client   *mongo.Client
	Database *mongo.Database
}

var MongoGlobalInstance *MongoInstance

const defaultMongoConnectionString = "mongodb://localhost:27017/"
const defaultMongoDatabase = "capacity-assignment"

// Connect opens the global Mongo connection used by the results sink.
// Callers that never configure a result sink never call this; the CLI
// treats a connection failure here as fatal only when the sink was
// explicitly requested.
func Connect() error {
	connectionString := defaultMongoConnectionString
	dbName := defaultMongoDatabase

	env := util.GetEnvironmentVariables()

	if env["ASSIGNMENT_MONGODB_CONNECTION"] != "" {
		connectionString = env["ASSIGNMENT_MONGODB_CONNECTION"]
	}

	if env["ASSIGNMENT_MONGODB_DATABASE"] != "" {
		dbName = env["ASSIGNMENT_MONGODB_DATABASE"]
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return err
	}

	MongoGlobalInstance = &MongoInstance{
		Client:   client,
		Database: client.Database(dbName),
	}

	createIndexes()

	return nil
}

func GetCollection(collectionName string) *mongo.Collection {
	return MongoGlobalInstance.Database.Collection(collectionName)
}
