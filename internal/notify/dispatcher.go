package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DeliverFunc performs the actual chat delivery for one envelope.
type DeliverFunc func(ctx context.Context, envelope *Envelope) error

// Dispatcher drains the notification queue with a pool of goroutines and
// hands each envelope to the delivery function. The bot front end owns the
// delivery function; the repository never blocks on it.
type Dispatcher struct {
	client  *redis.Client
	queue   string
	deliver DeliverFunc

	popTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(client *redis.Client, queue string, deliver DeliverFunc) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &Dispatcher{
		client:     client,
		queue:      queue,
		deliver:    deliver,
		popTimeout: 2 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (d *Dispatcher) Start(concurrency int) {
	log.Printf("Starting notification dispatcher with %d goroutines", concurrency)

	for i := 0; i < concurrency; i++ {
		d.wg.Add(1)
		go d.loop()
	}
}

func (d *Dispatcher) Stop() {
	log.Println("Stopping notification dispatcher...")
	d.cancel()
	d.wg.Wait()
}

func (d *Dispatcher) loop() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		default:
		}

		result, err := d.client.BRPop(d.ctx, d.popTimeout, d.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("Failed to pop notification: %v", err)
			time.Sleep(time.Second)
			continue
		}

		// BRPop returns [queue, payload].
		if len(result) < 2 {
			continue
		}

		var envelope Envelope
		if err := json.Unmarshal([]byte(result[1]), &envelope); err != nil {
			log.Printf("Dropping malformed notification envelope: %v", err)
			continue
		}

		if err := d.deliver(d.ctx, &envelope); err != nil {
			log.Printf("Failed to deliver notification %s to user %d: %v",
				envelope.ID, envelope.ExternalUserID, err)
		}
	}
}
