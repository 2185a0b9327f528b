// Package redis_client owns the shared Redis connection the checkpoint
// store and the distributed work queue are both built on top of.
package redis_client

import (
	"context"
	"strconv"

	"github.com/adjust/rmq/v5"
	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"

	"github.com/travigo/capacity-assignment/pkg/util"
)

var Client *redis.Client
var QueueConnection rmq.Connection

const defaultConnectionAddress = "localhost:6379"
const defaultConnectionPassword = ""
const defaultDatabase = 0

// Connect opens the shared Redis client and, on top of it, an rmq
// connection tagged with this module's own queue namespace. The initial
// ping is retried with backoff since distqueue/checkpoint startup often
// races a Redis container that hasn't finished booting yet.
func Connect() error {
	address := defaultConnectionAddress
	password := defaultConnectionPassword
	database := defaultDatabase

	env := util.GetEnvironmentVariables()

	if env["ASSIGNMENT_REDIS_ADDRESS"] != "" {
		address = env["ASSIGNMENT_REDIS_ADDRESS"]
	}

	if env["ASSIGNMENT_REDIS_PASSWORD"] != "" {
		password = env["ASSIGNMENT_REDIS_PASSWORD"]
	}

	if env["ASSIGNMENT_REDIS_DATABASE"] != "" {
		n, err := strconv.Atoi(env["ASSIGNMENT_REDIS_DATABASE"])
		if err != nil {
			return err
		}
		database = n
	}

	options := &redis.Options{Addr: address, DB: database}
	if password != "" {
		options.Password = password
	}
	Client = redis.NewClient(options)

	ping := func() error { return Client.Ping(context.Background()).Err() }
	retry := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5)
	if err := backoff.Retry(ping, retry); err != nil {
		return err
	}

	var err error
	QueueConnection, err = rmq.OpenConnectionWithRedisClient("capacity-assignment", Client, nil)
	return err
}
