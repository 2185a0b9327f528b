// Package distqueue distributes per-destination assignment work across
// consumer processes over Redis, an alternative to the in-process
// conc/pool fan-out for deployments that want to scale workers
// independently of the process building the PAT profiles.
package distqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adjust/rmq/v5"
	"github.com/rs/zerolog/log"

	"github.com/travigo/capacity-assignment/pkg/csa"
	"github.com/travigo/capacity-assignment/pkg/demand"
	"github.com/travigo/capacity-assignment/pkg/redis_client"
)

const queueName = "assignment-destinations"

// DestinationWork is one queue message: a destination vertex plus the
// demand entries routed toward it, the same unit of work
// Coordinator.runOneDestination processes in-process.
type DestinationWork struct {
	Destination csa.Vertex     `json:"destination"`
	Entries     []demand.Entry `json:"entries"`
}

// Publisher pushes one DestinationWork message per destination onto the
// shared queue for a pool of Consumers to drain.
type Publisher struct {
	queue rmq.Queue
}

// NewPublisher opens (creating if absent) the assignment destination
// queue on the shared Redis connection.
func NewPublisher() (*Publisher, error) {
	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return nil, fmt.Errorf("distqueue: opening queue: %w", err)
	}
	return &Publisher{queue: queue}, nil
}

// Publish enqueues one message per destination in byDest.
func (p *Publisher) Publish(byDest map[csa.Vertex][]demand.Entry) error {
	for destination, entries := range byDest {
		payload, err := json.Marshal(DestinationWork{Destination: destination, Entries: entries})
		if err != nil {
			return fmt.Errorf("distqueue: encoding destination %d: %w", destination, err)
		}
		if err := p.queue.PublishBytes(payload); err != nil {
			return fmt.Errorf("distqueue: publishing destination %d: %w", destination, err)
		}
	}
	return nil
}

// ProcessFunc runs one destination's PAT build and forward walk and
// reports only whether it failed; the caller folds the assignment data
// into its own accumulator. This is supplied by the caller (the
// coordinator's RunDistributed, which runs runOneDestination on the
// iteration's shared Builder with a fresh decision model and cycle
// remover per delivery) so distqueue stays independent of the assignment
// package's internals.
type ProcessFunc func(work DestinationWork) error

// Consumer adapts a ProcessFunc to rmq.Consumer: each delivery decodes
// to one DestinationWork, runs it, and acknowledges on success. A
// failure is rejected rather than acked, which moves the delivery to
// rmq's rejected list; nothing in this package returns rejected
// deliveries to the ready queue.
type Consumer struct {
	process ProcessFunc
}

func NewConsumer(process ProcessFunc) *Consumer {
	return &Consumer{process: process}
}

func (c *Consumer) Consume(delivery rmq.Delivery) {
	var work DestinationWork
	if err := json.Unmarshal([]byte(delivery.Payload()), &work); err != nil {
		log.Error().Err(err).Msg("distqueue: malformed destination work payload")
		if err := delivery.Reject(); err != nil {
			log.Error().Err(err).Msg("distqueue: failed to reject malformed delivery")
		}
		return
	}

	if err := c.process(work); err != nil {
		log.Error().Err(err).Int("destination", int(work.Destination)).Msg("distqueue: processing destination failed")
		if err := delivery.Reject(); err != nil {
			log.Error().Err(err).Msg("distqueue: failed to reject delivery")
		}
		return
	}

	if err := delivery.Ack(); err != nil {
		log.Error().Err(err).Int("destination", int(work.Destination)).Msg("distqueue: failed to ack delivery")
	}
}

// StartConsumers opens the shared destination queue and runs
// numConsumers goroutines against it, each independently pulling
// deliveries and running process. Mirrors the teacher's batch-consumer
// startup shape, at a batch size of one since each delivery is already
// a full destination's worth of work.
func StartConsumers(numConsumers int, process ProcessFunc) error {
	queue, err := redis_client.QueueConnection.OpenQueue(queueName)
	if err != nil {
		return fmt.Errorf("distqueue: opening queue: %w", err)
	}
	if err := queue.StartConsuming(int64(numConsumers), 1*time.Second); err != nil {
		return fmt.Errorf("distqueue: starting consuming: %w", err)
	}

	for i := 0; i < numConsumers; i++ {
		tag := fmt.Sprintf("destination-consumer-%d", i)
		if _, err := queue.AddConsumer(tag, NewConsumer(process)); err != nil {
			return fmt.Errorf("distqueue: adding consumer %s: %w", tag, err)
		}
	}
	return nil
}
