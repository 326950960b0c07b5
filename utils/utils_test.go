package utils

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounterReader(t *testing.T) {
	data := bytes.Repeat([]byte("banyan"), 1000)

	var seen []int64
	r := NewCounterReader(bytes.NewReader(data), func(total int64) {
		seen = append(seen, total)
	})

	buf := make([]byte, 512)
	out := bytes.Buffer{}
	_, err := io.CopyBuffer(&out, struct{ io.Reader }{r}, buf)
	require.NoError(t, err)

	assert.Equal(t, data, out.Bytes())
	assert.Equal(t, int64(len(data)), r.Count())
	require.NotEmpty(t, seen)
	for i := 1; i < len(seen); i++ {
		assert.Greater(t, seen[i], seen[i-1])
	}
	assert.Equal(t, int64(len(data)), seen[len(seen)-1])
}

func TestMonitorShutdownTrigger(t *testing.T) {
	trigger := make(chan struct{})
	ctx, done := MonitorShutdown(context.Background(), trigger)
	close(trigger)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown not observed")
	}
	assert.Error(t, ctx.Err())
}

func TestToMap(t *testing.T) {
	m := ToMap([]string{"a", "bb", "ccc"}, func(s string) int { return len(s) })
	assert.Equal(t, map[int]string{1: "a", 2: "bb", 3: "ccc"}, m)
}
