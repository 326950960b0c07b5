package lifecycle

import (
	"context"
	"time"

	"github.com/raulk/clock"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/banyancomputer/banyan-client/backend"
	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/types"
)

const DefaultPollInterval = 5 * time.Second

// StatusSource reads the status of an on-chain deal.
type StatusSource interface {
	GetStatus(ctx context.Context, id types.DealID) (types.DealStatus, error)
}

// PinSource reads the pin status of a staged upload.
type PinSource interface {
	PinStatus(ctx context.Context, stagingID string) (*backend.PinStatus, error)
}

// poll calls check right away and then once per interval until it reports
// done or ctx ends. Errors from check are logged and retried on the same
// schedule.
func poll(ctx context.Context, clk clock.Clock, interval time.Duration, name string, check func(ctx context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := clk.Ticker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		recordPoll(ctx, name, err)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warnw("poll failed, retrying", "poller", name, "interval", interval, "err", err)
		} else if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// StatusPoller follows a deal until it reaches a terminal status.
type StatusPoller struct {
	source   StatusSource
	interval time.Duration
	clock    clock.Clock
}

func NewStatusPoller(source StatusSource, interval time.Duration, clk clock.Clock) *StatusPoller {
	if clk == nil {
		clk = clock.New()
	}
	return &StatusPoller{source: source, interval: interval, clock: clk}
}

// Watch reports every status read to onStatus and returns the terminal status
// once seen. It returns ctx.Err() with the last known status when ctx ends
// first.
func (p *StatusPoller) Watch(ctx context.Context, id types.DealID, onStatus func(types.DealStatus)) (types.DealStatus, error) {
	last := types.DealStatusNone
	err := poll(ctx, p.clock, p.interval, "status", func(ctx context.Context) (bool, error) {
		status, err := p.source.GetStatus(ctx, id)
		if err != nil {
			return false, err
		}
		if status != last {
			log.Infow("deal status", "deal", id, "status", status)
		}
		last = status
		if onStatus != nil {
			onStatus(status)
		}
		return status.IsTerminal(), nil
	})
	return last, err
}

// PinPoller follows a staged upload until the staging service has pinned it.
type PinPoller struct {
	source   PinSource
	interval time.Duration
	clock    clock.Clock
}

func NewPinPoller(source PinSource, interval time.Duration, clk clock.Clock) *PinPoller {
	if clk == nil {
		clk = clock.New()
	}
	return &PinPoller{source: source, interval: interval, clock: clk}
}

// Watch reports every pin status read to onStatus and returns once the
// content is pinned or ctx ends.
func (p *PinPoller) Watch(ctx context.Context, stagingID string, onStatus func(*backend.PinStatus)) (*backend.PinStatus, error) {
	var last *backend.PinStatus
	err := poll(ctx, p.clock, p.interval, "pin", func(ctx context.Context) (bool, error) {
		st, err := p.source.PinStatus(ctx, stagingID)
		if err != nil {
			return false, err
		}
		last = st
		if onStatus != nil {
			onStatus(st)
		}
		return st.Pinned(), nil
	})
	return last, err
}

func recordPoll(ctx context.Context, poller string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.PollerTag, poller),
		tag.Upsert(metrics.OutcomeTag, outcome),
	}, metrics.PollCount.M(1))
}
