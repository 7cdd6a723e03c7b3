// internal/history/consumer.go
package history

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// MatchSink persists a batch of finished matches. The Postgres
// implementation lives in this package; tests supply their own.
type MatchSink interface {
	InsertMatches(ctx context.Context, recs []MatchRecord) error
}

// Consumer drains the match queue and batch-persists records. It is the
// worker half of the reward pipeline: the game service only ever pushes.
type Consumer struct {
	rdb        *redis.Client
	queue      string
	sink       MatchSink
	batchSize  int
	flushDelay time.Duration
	log        *logrus.Logger

	batchMu sync.Mutex
	batch   []MatchRecord
}

// ConsumerOptions tune batching; zero values pick the defaults.
type ConsumerOptions struct {
	BatchSize  int
	FlushDelay time.Duration
}

// NewConsumer builds a consumer over the Redis queue.
func NewConsumer(addr string, db int, queue string, sink MatchSink, log *logrus.Logger, opts ConsumerOptions) *Consumer {
	if queue == "" {
		queue = DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}
	return &Consumer{
		rdb:        redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		queue:      queue,
		sink:       sink,
		batchSize:  opts.BatchSize,
		flushDelay: opts.FlushDelay,
		log:        log,
		batch:      make([]MatchRecord, 0, opts.BatchSize),
	}
}

// Run blocks, popping records and flushing batches until the context is
// cancelled. A final flush runs on the way out.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return err
	}
	ticker := time.NewTicker(c.flushDelay)
	defer ticker.Stop()
	defer c.flush()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.flush()
		default:
			// BLPop with a short timeout so cancellation is noticed.
			res, err := c.rdb.BLPop(ctx, 3*time.Second, c.queue).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				c.log.WithError(err).Warn("historian: BLPop failed")
				continue
			}
			if len(res) < 2 {
				continue
			}
			var rec MatchRecord
			if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
				c.log.WithError(err).Warn("historian: dropping undecodable match record")
				continue
			}
			c.append(rec)
		}
	}
}

// Close releases the Redis client.
func (c *Consumer) Close() error { return c.rdb.Close() }

func (c *Consumer) append(rec MatchRecord) {
	c.batchMu.Lock()
	c.batch = append(c.batch, rec)
	full := len(c.batch) >= c.batchSize
	c.batchMu.Unlock()
	if full {
		c.flush()
	}
}

func (c *Consumer) flush() {
	c.batchMu.Lock()
	if len(c.batch) == 0 {
		c.batchMu.Unlock()
		return
	}
	batch := make([]MatchRecord, len(c.batch))
	copy(batch, c.batch)
	c.batch = c.batch[:0]
	c.batchMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := c.sink.InsertMatches(ctx, batch); err != nil {
		c.log.WithError(err).Errorf("historian: failed to persist %d match records", len(batch))
		return
	}
	c.log.Infof("historian: persisted %d match records", len(batch))
}
