// Command sequencerdemo runs a single producer against a single consumer
// over a sequencer.Sequencer and logs throughput once a second until
// interrupted. It exists to give the sequencer a runnable caller; the
// library itself never logs.
package main

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/flowring/sequencer"
)

const ringCapacity = 4096

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	seq, err := sequencer.New(ringCapacity, sequencer.SingleThreaded, sequencer.Sleeping)
	if err != nil {
		logger.Fatal("construct sequencer", zap.Error(err))
	}

	consumerSeq := sequencer.NewSequence(sequencer.InitialCursorValue)
	if err := seq.SetGatingSequences([]*sequencer.Sequence{consumerSeq}); err != nil {
		logger.Fatal("set gating sequences", zap.Error(err))
	}
	barrier := seq.NewBarrier(nil)

	var published, consumed atomic.Int64
	done := make(chan struct{})

	go produce(ctx, seq, &published, done)
	go consume(ctx, barrier, consumerSeq, &consumed, logger)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-done
			barrier.Alert()
			logger.Info("shutting down",
				zap.Int64("published", published.Load()),
				zap.Int64("consumed", consumed.Load()))
			return
		case <-ticker.C:
			logger.Info("throughput",
				zap.Int64("published", published.Load()),
				zap.Int64("consumed", consumed.Load()))
		}
	}
}

// produce claims and publishes sequences as fast as the ring allows, until
// ctx is cancelled.
func produce(ctx context.Context, seq *sequencer.Sequencer, published *atomic.Int64, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		s := seq.Next()
		seq.Publish(s)
		published.Add(1)
	}
}

// consume drains the barrier in whatever batches the producer happened to
// publish, advancing its own gating sequence after each wait.
func consume(ctx context.Context, barrier *sequencer.SequenceBarrier, gating *sequencer.Sequence, consumed *atomic.Int64, logger *zap.Logger) {
	next := sequencer.InitialCursorValue + 1
	for {
		available, err := barrier.WaitFor(next)
		if err != nil {
			logger.Info("consumer stopped", zap.Error(err))
			return
		}
		consumed.Add(available - next + 1)
		next = available + 1
		gating.Set(available)

		select {
		case <-ctx.Done():
		default:
		}
	}
}
