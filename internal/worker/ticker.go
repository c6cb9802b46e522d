// Package worker contains the backend stages that sit between bus topics:
// each consumes one binding key, applies its transformation and publishes
// zero or one message per input. Workers are stateless relative to the bus;
// on broker failure they return and rely on process supervision to restart.
package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/citypulse/server/internal/model"
	"github.com/citypulse/server/internal/queue"
)

const defaultDeltasPerTick = 20

// SimTicker is the tick producer: at every interval it publishes a batch of
// random tile deltas for the configured grid on sim.tick.
type SimTicker struct {
	Broker        queue.Broker
	GridWidth     int
	GridHeight    int
	Interval      time.Duration
	DeltasPerTick int
}

func NewSimTicker(b queue.Broker, gridW, gridH int, interval time.Duration) *SimTicker {
	return &SimTicker{
		Broker:        b,
		GridWidth:     gridW,
		GridHeight:    gridH,
		Interval:      interval,
		DeltasPerTick: defaultDeltasPerTick,
	}
}

// Run publishes ticks until the context is cancelled or a publish fails.
func (s *SimTicker) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Broker.Publish(ctx, queue.TopicSimTick, s.NextTick()); err != nil {
				return err
			}
		}
	}
}

// NextTick builds one tick payload with random traffic deltas.
func (s *SimTicker) NextTick() queue.SimTick {
	deltas := make([]model.TileDelta, s.DeltasPerTick)
	for i := range deltas {
		traffic := rand.Float64()
		deltas[i] = model.TileDelta{
			X:       rand.Intn(s.GridWidth),
			Y:       rand.Intn(s.GridHeight),
			Traffic: &traffic,
		}
	}
	now := time.Now().UTC()
	return queue.SimTick{Tick: now.UnixMilli(), Deltas: deltas, At: now}
}
