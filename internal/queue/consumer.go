package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// CloseHandler finalizes one auction session. A transient failure is
// reported as an error so the message is redelivered; a stale or already
// closed session must be treated as success by the handler.
type CloseHandler interface {
	Close(ctx context.Context, adID uint64, sessionID string) error
}

// StartAuctionCloseConsumer connects to RabbitMQ, declares the worker
// queue and the wait-bucket ladder, and consumes close jobs from
// auction.close. Jobs whose fire time is still ahead go back on the
// ladder; due jobs are handed to the CloseHandler. Transient handler
// errors are nacked with requeue so the broker redelivers them (the close
// is idempotent), while malformed payloads are dropped. The function runs
// a reconnect loop with exponential backoff and keeps running across
// broker restarts.
func StartAuctionCloseConsumer(handler CloseHandler) error {
	url := brokerURL()

	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("close-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeCloseJobs(conn, handler); err != nil {
			log.Printf("close-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
			continue
		}
	}
}

func consumeCloseJobs(conn *amqp.Connection, handler CloseHandler) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// One close job at a time: winner selection holds row locks and there
	// is no benefit in concurrent closes on one worker.
	if err := ch.Qos(1, 0, false); err != nil {
		log.Printf("close-consumer: set QoS failed: %v", err)
	}

	if err := declareCloseQueues(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(closeQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		var job AuctionCloseJob
		if err := json.Unmarshal(d.Body, &job); err != nil {
			log.Printf("close-consumer: bad payload, dropping: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		if job.AdID == 0 || job.SessionID == "" {
			log.Printf("close-consumer: incomplete job %+v, dropping", job)
			_ = d.Nack(false, false)
			continue
		}

		// A job surfaces from its wait bucket as soon as the bucket's TTL
		// elapses, which can be well before the auction end when the
		// remaining delay was longer than the largest bucket. Put it back
		// on the ladder instead of closing early.
		if rem := remainingDelay(job.ScheduledFor, time.Now().UTC()); rem > 0 {
			if err := requeueWait(ch, d.Body, rem); err != nil {
				log.Printf("close-consumer: requeue ad=%d session=%s failed: %v; redelivering", job.AdID, job.SessionID, err)
				time.Sleep(time.Second)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := handler.Close(ctx, job.AdID, job.SessionID)
		cancel()
		if err != nil {
			// Transient failure (DB down, timeout): requeue for another
			// attempt after a short pause so we do not spin on the broker.
			log.Printf("close-consumer: close ad=%d session=%s failed: %v; requeueing", job.AdID, job.SessionID, err)
			time.Sleep(time.Second)
			_ = d.Nack(false, true)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}
