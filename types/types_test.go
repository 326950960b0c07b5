package types

import (
	"errors"
	"testing"

	"github.com/filecoin-project/go-state-types/big"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func TestParseTokenAmount(t *testing.T) {
	cases := []struct {
		in       string
		decimals uint8
		expect   int64
		err      bool
	}{
		{in: "10", decimals: 6, expect: 10_000_000},
		{in: "0.01", decimals: 6, expect: 10_000},
		{in: "0.04", decimals: 6, expect: 40_000},
		{in: "1.5", decimals: 0, err: true},
		{in: "0.0000001", decimals: 6, err: true},
		{in: "-1", decimals: 6, err: true},
		{in: "abc", decimals: 6, err: true},
		{in: "", decimals: 6, err: true},
	}

	for _, c := range cases {
		v, err := ParseTokenAmount(c.in, c.decimals)
		if c.err {
			assert.ErrorIs(t, err, ErrInvalidInput, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.True(t, v.Equals(big.NewInt(c.expect)), "%s: got %s", c.in, v)
	}
}

func TestFormatTokenAmount(t *testing.T) {
	assert.Equal(t, "0.04", FormatTokenAmount(big.NewInt(40_000), 6))
	assert.Equal(t, "40", FormatTokenAmount(big.NewInt(40_000_000), 6))
	assert.Equal(t, "0", FormatTokenAmount(big.Int{}, 6))
	assert.Equal(t, "7", FormatTokenAmount(big.NewInt(7), 0))
}

func TestScaleBySize(t *testing.T) {
	tib := uint64(1 << 40)

	v, err := ScaleBySize(big.NewInt(3), tib/2, tib)
	require.NoError(t, err)
	// 1.5 truncates to 1
	assert.True(t, v.Equals(big.NewInt(1)))

	_, err = ScaleBySize(big.NewInt(3), 1, 0)
	assert.Error(t, err)
}

func TestDealStatus(t *testing.T) {
	for _, s := range DealStatuses {
		assert.True(t, s.Valid())
	}
	assert.False(t, DealStatus(42).Valid())
	assert.Equal(t, "Timed Out", DealStatusTimedOut.String())

	terminal := map[DealStatus]bool{
		DealStatusFinalized: true,
		DealStatusCancelled: true,
		DealStatusTimedOut:  true,
	}
	for _, s := range DealStatuses {
		assert.Equal(t, terminal[s], s.IsTerminal(), s.String())
	}
}

func TestSubmittable(t *testing.T) {
	p := &DealProposal{FileSize: 10, ContentID: "bafy", IntegrityHash: "b3"}
	assert.NoError(t, p.Submittable())

	for _, broken := range []*DealProposal{
		nil,
		{FileSize: 0, ContentID: "bafy", IntegrityHash: "b3"},
		{FileSize: 10, IntegrityHash: "b3"},
		{FileSize: 10, ContentID: "bafy"},
	} {
		assert.ErrorIs(t, broken.Submittable(), ErrInvalidProposal)
	}
}

func TestErrorKinds(t *testing.T) {
	upload := xerrors.Errorf("stage: %w", &UploadError{StatusCode: 500, Body: "boom"})
	assert.ErrorIs(t, upload, ErrUpload)
	assert.True(t, Retryable(upload))

	var ue *UploadError
	require.True(t, errors.As(upload, &ue))
	assert.Equal(t, 500, ue.StatusCode)

	query := &QueryError{Op: "getStatus", Err: errors.New("dial tcp")}
	assert.ErrorIs(t, query, ErrQuery)
	assert.NotErrorIs(t, query, ErrDealNotFound)

	assert.True(t, Retryable(&ChainRejected{Detail: "execution reverted"}))
	assert.False(t, Retryable(&ChainRejected{Detail: "execution reverted", TxHash: "0x01"}))
	assert.False(t, Retryable(&SubmissionAmbiguous{TxHash: "0x01"}))
	assert.False(t, Retryable(xerrors.Errorf("%w: no file", ErrInvalidInput)))
	assert.True(t, Retryable(ErrTimeout))

	// sent but unconfirmed: a timeout, yet not safe to resend
	pending := &SubmissionAmbiguous{TxHash: "0x02", Reason: "not confirmed", Err: ErrTimeout}
	assert.ErrorIs(t, pending, ErrTimeout)
	assert.ErrorIs(t, pending, ErrSubmissionAmbiguous)
	assert.False(t, Retryable(pending))
}

func TestEntryState(t *testing.T) {
	assert.True(t, EntryStaging.InFlight())
	assert.True(t, EntrySubmitting.InFlight())
	assert.False(t, EntryStaged.InFlight())

	assert.True(t, EntrySubmitAmbiguous.HasDeal())
	assert.False(t, EntrySubmitFailed.HasDeal())

	e := &Entry{ID: "a", Staging: &StagingResult{ContentID: "bafy"}}
	c := e.Clone()
	c.Staging.ContentID = "other"
	assert.Equal(t, "bafy", e.Staging.ContentID)
}
