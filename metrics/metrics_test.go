package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

func TestSinceInMilliseconds(t *testing.T) {
	assert.Equal(t, 1500.0, SinceInMilliseconds(1500*time.Millisecond))
	assert.Equal(t, 0.5, SinceInMilliseconds(500*time.Microsecond))
}

func TestSetupMetricsDisabled(t *testing.T) {
	require.NoError(t, SetupMetrics(context.Background(), nil))

	cfg := DefaultConfig()
	cfg.Enabled = false
	require.NoError(t, SetupMetrics(context.Background(), cfg))
}

func TestStageCountView(t *testing.T) {
	require.NoError(t, view.Register(StageCountView))
	defer view.Unregister(StageCountView)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(OutcomeTag, "ok")}, StageCount.M(1)))
	}
	require.NoError(t, stats.RecordWithTags(ctx, []tag.Mutator{tag.Upsert(OutcomeTag, "error")}, StageCount.M(1)))

	rows, err := view.RetrieveData(StageCountView.Name)
	require.NoError(t, err)

	counts := map[string]int64{}
	for _, row := range rows {
		require.Len(t, row.Tags, 1)
		counts[row.Tags[0].Value] = row.Data.(*view.CountData).Value
	}
	assert.Equal(t, map[string]int64{"ok": 3, "error": 1}, counts)
}
