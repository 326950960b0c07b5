package metrics

import (
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Global Tags
var (
	OutcomeTag, _ = tag.NewKey("outcome")
	ProfileTag, _ = tag.NewKey("profile")
	MethodTag, _  = tag.NewKey("method")
	StateTag, _   = tag.NewKey("state")
	PollerTag, _  = tag.NewKey("poller")
)

// Distribution
var defaultMillisecondsDistribution = view.Distribution(100, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000, 300000, 600000)

var (
	StagedBytes          = stats.Int64("staging/bytes", "bytes uploaded to the staging service", stats.UnitBytes)
	StageCount           = stats.Int64("staging/count", "staging attempts", stats.UnitDimensionless)
	StageDuration        = stats.Float64("staging/duration_ms", "duration of a staging upload", stats.UnitMilliseconds)
	ChainSubmitCount     = stats.Int64("chain/submit_count", "deal proposals submitted to the contract", stats.UnitDimensionless)
	ChainSubmitDuration  = stats.Float64("chain/submit_duration_ms", "time from sending a proposal to decoding its deal id", stats.UnitMilliseconds)
	ChainQueryCount      = stats.Int64("chain/query_count", "contract read calls", stats.UnitDimensionless)
	BackendRequestCount  = stats.Int64("backend/request_count", "backend api requests", stats.UnitDimensionless)
	EntryTransitionCount = stats.Int64("lifecycle/transition_count", "upload entry state transitions", stats.UnitDimensionless)
	PollCount            = stats.Int64("lifecycle/poll_count", "status polls issued", stats.UnitDimensionless)
)

var (
	//staging
	StagedBytesView = &view.View{
		Measure:     StagedBytes,
		Aggregation: view.Sum(),
	}
	StageCountView = &view.View{
		Measure:     StageCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{OutcomeTag},
	}
	StageDurationView = &view.View{
		Measure:     StageDuration,
		Aggregation: defaultMillisecondsDistribution,
	}

	//chain
	ChainSubmitCountView = &view.View{
		Measure:     ChainSubmitCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{ProfileTag, OutcomeTag},
	}
	ChainSubmitDurationView = &view.View{
		Measure:     ChainSubmitDuration,
		Aggregation: defaultMillisecondsDistribution,
		TagKeys:     []tag.Key{ProfileTag},
	}
	ChainQueryCountView = &view.View{
		Measure:     ChainQueryCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MethodTag, OutcomeTag},
	}

	//backend
	BackendRequestCountView = &view.View{
		Measure:     BackendRequestCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{MethodTag, OutcomeTag},
	}

	//lifecycle
	EntryTransitionCountView = &view.View{
		Measure:     EntryTransitionCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{StateTag},
	}
	PollCountView = &view.View{
		Measure:     PollCount,
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{PollerTag, OutcomeTag},
	}
)

var views = []*view.View{
	StagedBytesView,
	StageCountView,
	StageDurationView,

	ChainSubmitCountView,
	ChainSubmitDurationView,
	ChainQueryCountView,

	BackendRequestCountView,

	EntryTransitionCountView,
	PollCountView,
}

// SinceInMilliseconds returns d as fractional milliseconds.
func SinceInMilliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
