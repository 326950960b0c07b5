package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/raulk/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyancomputer/banyan-client/backend"
	"github.com/banyancomputer/banyan-client/lifecycle/mocks"
	"github.com/banyancomputer/banyan-client/types"
)

type watchResult struct {
	status types.DealStatus
	err    error
}

func TestStatusPollerStopsOnTerminal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockDealGateway(ctrl)
	gomock.InOrder(
		gw.EXPECT().GetStatus(gomock.Any(), types.DealID(42)).Return(types.DealStatusProposed, nil),
		gw.EXPECT().GetStatus(gomock.Any(), types.DealID(42)).Return(types.DealStatusAccepted, nil),
		gw.EXPECT().GetStatus(gomock.Any(), types.DealID(42)).Return(types.DealStatusFinalized, nil),
	)

	mClock := clock.NewMock()
	p := NewStatusPoller(gw, DefaultPollInterval, mClock)

	statuses := make(chan types.DealStatus)
	result := make(chan watchResult, 1)
	go func() {
		st, err := p.Watch(context.Background(), 42, func(s types.DealStatus) { statuses <- s })
		result <- watchResult{st, err}
	}()

	assert.Equal(t, types.DealStatusProposed, <-statuses)
	mClock.Add(DefaultPollInterval)
	assert.Equal(t, types.DealStatusAccepted, <-statuses)
	mClock.Add(DefaultPollInterval)
	assert.Equal(t, types.DealStatusFinalized, <-statuses)

	res := <-result
	require.NoError(t, res.err)
	assert.Equal(t, types.DealStatusFinalized, res.status)

	// no query after the terminal status
	mClock.Add(DefaultPollInterval * 3)
}

func TestStatusPollerRetriesErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	queried := make(chan struct{}, 1)
	gw := mocks.NewMockDealGateway(ctrl)
	gomock.InOrder(
		gw.EXPECT().GetStatus(gomock.Any(), types.DealID(7)).DoAndReturn(func(context.Context, types.DealID) (types.DealStatus, error) {
			queried <- struct{}{}
			return types.DealStatusNone, &types.QueryError{Op: "getStatus", Err: errors.New("connection refused")}
		}),
		gw.EXPECT().GetStatus(gomock.Any(), types.DealID(7)).Return(types.DealStatusCancelled, nil),
	)

	mClock := clock.NewMock()
	p := NewStatusPoller(gw, time.Second, mClock)
	result := make(chan watchResult, 1)
	go func() {
		st, err := p.Watch(context.Background(), 7, nil)
		result <- watchResult{st, err}
	}()

	<-queried
	mClock.Add(time.Second)
	res := <-result
	require.NoError(t, res.err)
	assert.Equal(t, types.DealStatusCancelled, res.status)
}

func TestStatusPollerCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	gw := mocks.NewMockDealGateway(ctrl)
	gw.EXPECT().GetStatus(gomock.Any(), types.DealID(9)).Return(types.DealStatusActive, nil).Times(1)

	ctx, cancel := context.WithCancel(context.Background())
	p := NewStatusPoller(gw, DefaultPollInterval, clock.NewMock())

	st, err := p.Watch(ctx, 9, func(types.DealStatus) { cancel() })
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, types.DealStatusActive, st)
}

type fakePins struct {
	lk       sync.Mutex
	statuses []string
	calls    int
}

func (f *fakePins) PinStatus(ctx context.Context, stagingID string) (*backend.PinStatus, error) {
	f.lk.Lock()
	defer f.lk.Unlock()
	st := f.statuses[f.calls]
	f.calls++
	return &backend.PinStatus{RequestID: backend.FlexString(stagingID), Status: st}, nil
}

func TestPinPoller(t *testing.T) {
	pins := &fakePins{statuses: []string{"queued", "pinning", backend.StatusPinned}}
	mClock := clock.NewMock()
	p := NewPinPoller(pins, 0, mClock)

	seen := make(chan string)
	result := make(chan *backend.PinStatus, 1)
	go func() {
		st, err := p.Watch(context.Background(), "est-1", func(st *backend.PinStatus) { seen <- st.Status })
		assert.NoError(t, err)
		result <- st
	}()

	assert.Equal(t, "queued", <-seen)
	mClock.Add(DefaultPollInterval)
	assert.Equal(t, "pinning", <-seen)
	mClock.Add(DefaultPollInterval)
	assert.Equal(t, backend.StatusPinned, <-seen)

	st := <-result
	assert.True(t, st.Pinned())
	assert.Equal(t, 3, pins.calls)
}
