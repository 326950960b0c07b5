package chain

import (
	"context"
	"errors"
	mbig "math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banyancomputer/banyan-client/types"
)

var contractAddress = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

type callFunc func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error)

type fakeContract struct {
	transactErr error
	transacts   int
	calls       map[string]callFunc
}

func (f *fakeContract) Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*ethtypes.Transaction, error) {
	f.transacts++
	if f.transactErr != nil {
		return nil, f.transactErr
	}
	return ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    uint64(f.transacts),
		To:       &contractAddress,
		Gas:      100000,
		GasPrice: mbig.NewInt(1),
	}), nil
}

func (f *fakeContract) Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error {
	fn, ok := f.calls[method]
	if !ok {
		return errors.New("method not handled")
	}
	out, err := fn(opts, params...)
	if err != nil {
		return err
	}
	*results = out
	return nil
}

func newTestGateway(t *testing.T, profile string, c *fakeContract, waiter ReceiptWaiter) (*Gateway, *KeyWallet) {
	p, err := LookupProfile(profile)
	require.NoError(t, err)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	w := NewKeyWallet(key)

	g := newGateway(contractAddress, p, w, c, func(ctx context.Context) (*mbig.Int, error) {
		return mbig.NewInt(5), nil
	})
	g.tokens = testTokens
	g.waitMined = waiter
	return g, w
}

func minedReceipt(status uint64, logs ...*ethtypes.Log) ReceiptWaiter {
	return func(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
		return &ethtypes.Receipt{
			Status:      status,
			TxHash:      tx.Hash(),
			BlockNumber: mbig.NewInt(1000),
			Logs:        logs,
		}, nil
	}
}

func dealCreatedLog(t *testing.T, from common.Address, id int64) *ethtypes.Log {
	p, err := LookupProfile(ProfileBanyanV3)
	require.NoError(t, err)
	return &ethtypes.Log{
		Address: from,
		Topics: []common.Hash{
			p.ABI.Events["DealCreated"].ID,
			common.BigToHash(mbig.NewInt(id)),
			common.BytesToHash(common.HexToAddress("0x01").Bytes()),
			common.BytesToHash(common.HexToAddress("0xaa").Bytes()),
		},
	}
}

func TestSubmitNotSubmittable(t *testing.T) {
	c := &fakeContract{}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1))

	p := testProposal()
	p.ContentID = ""
	_, err := g.Submit(context.Background(), p)
	assert.ErrorIs(t, err, types.ErrInvalidProposal)

	p = testProposal()
	p.FileSize = 0
	_, err = g.Submit(context.Background(), p)
	assert.ErrorIs(t, err, types.ErrInvalidProposal)

	assert.Equal(t, 0, c.transacts)
}

func TestSubmitWithoutWallet(t *testing.T) {
	c := &fakeContract{}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1))
	g.wallet = nil

	_, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrAuthRequired)
	assert.Equal(t, 0, c.transacts)
}

type revertError struct{}

func (revertError) Error() string          { return "execution reverted" }
func (revertError) ErrorData() interface{} { return "0x08c379a0" }

func TestSubmitRejected(t *testing.T) {
	c := &fakeContract{transactErr: revertError{}}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1))

	_, err := g.Submit(context.Background(), testProposal())
	require.ErrorIs(t, err, types.ErrChainRejected)
	var rejected *types.ChainRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, contractAddress.Hex(), rejected.Contract)
	assert.Contains(t, rejected.Detail, "0x08c379a0")
	assert.Empty(t, rejected.TxHash)
	assert.True(t, types.Retryable(err))
	assert.Equal(t, 1, c.transacts)
}

func TestSubmitReceiptFailed(t *testing.T) {
	c := &fakeContract{}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(ethtypes.ReceiptStatusFailed))

	_, err := g.Submit(context.Background(), testProposal())
	require.ErrorIs(t, err, types.ErrChainRejected)
	var rejected *types.ChainRejected
	require.True(t, errors.As(err, &rejected))
	assert.NotEmpty(t, rejected.TxHash)
	assert.False(t, types.Retryable(err))
}

func TestSubmitConfirmationTimeout(t *testing.T) {
	c := &fakeContract{}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, func(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	WithConfirmationTimeout(20 * time.Millisecond)(g)

	_, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrTimeout)
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
	assert.False(t, types.Retryable(err))
	assert.Equal(t, 1, c.transacts)
}

func TestSubmitEventExtraction(t *testing.T) {
	c := &fakeContract{}
	other := common.HexToAddress("0xdead")
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1,
		dealCreatedLog(t, other, 99),
		dealCreatedLog(t, contractAddress, 42),
	))

	id, err := g.Submit(context.Background(), testProposal())
	require.NoError(t, err)
	assert.Equal(t, types.DealID(42), id)
}

func TestSubmitNoDecodableID(t *testing.T) {
	c := &fakeContract{}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1, dealCreatedLog(t, common.HexToAddress("0xdead"), 42)))
	_, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
	assert.NotErrorIs(t, err, types.ErrTimeout)

	g, _ = newTestGateway(t, ProfileBanyanV3, c, minedReceipt(1, dealCreatedLog(t, contractAddress, 0)))
	_, err = g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
}

// replayContract answers the replayed create with replayID and the deal read
// back with the given creator and content id.
func replayContract(t *testing.T, w **KeyWallet, replayID int64, creator func() common.Address, contentID string) *fakeContract {
	return &fakeContract{calls: map[string]callFunc{
		"createOffer": func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error) {
			assert.Equal(t, (*w).Address(), opts.From)
			assert.Equal(t, int64(999), opts.BlockNumber.Int64())
			assert.Equal(t, "USDC", params[5])
			return []interface{}{mbig.NewInt(replayID)}, nil
		},
		"getDeal": func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error) {
			assert.Equal(t, int64(1000), opts.BlockNumber.Int64())
			assert.Equal(t, uint64(replayID), params[0].(*mbig.Int).Uint64())
			out := dealTuple(1, "USDC")
			out[1] = creator()
			out[10] = contentID
			return out, nil
		},
	}}
}

func TestSubmitReturnValue(t *testing.T) {
	var w *KeyWallet
	c := replayContract(t, &w, 7, func() common.Address { return w.Address() }, "bafy123")
	var g *Gateway
	g, w = newTestGateway(t, ProfileBanyanV2, c, minedReceipt(1))

	id, err := g.Submit(context.Background(), testProposal())
	require.NoError(t, err)
	assert.Equal(t, types.DealID(7), id)
	assert.Equal(t, 1, c.transacts)
}

func TestSubmitReturnValueOtherSender(t *testing.T) {
	// an earlier create in the same block got id 7, ours is 8
	var w *KeyWallet
	c := replayContract(t, &w, 7, func() common.Address { return common.HexToAddress("0xbeef") }, "bafy123")
	var g *Gateway
	g, w = newTestGateway(t, ProfileBanyanV2, c, func(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
		return &ethtypes.Receipt{
			Status:           1,
			TxHash:           tx.Hash(),
			BlockNumber:      mbig.NewInt(1000),
			TransactionIndex: 1,
		}, nil
	})

	id, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
	assert.Equal(t, types.DealID(0), id)
	assert.Equal(t, 1, c.transacts)
}

func TestSubmitReturnValueOtherContent(t *testing.T) {
	var w *KeyWallet
	c := replayContract(t, &w, 7, func() common.Address { return w.Address() }, "bafyother")
	var g *Gateway
	g, w = newTestGateway(t, ProfileBanyanV2, c, minedReceipt(1))

	_, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
}

func TestSubmitReturnValueReadBackFails(t *testing.T) {
	var w *KeyWallet
	c := replayContract(t, &w, 7, func() common.Address { return w.Address() }, "bafy123")
	c.calls["getDeal"] = func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error) {
		return nil, errors.New("connection refused")
	}
	var g *Gateway
	g, w = newTestGateway(t, ProfileBanyanV2, c, minedReceipt(1))

	_, err := g.Submit(context.Background(), testProposal())
	assert.ErrorIs(t, err, types.ErrSubmissionAmbiguous)
	assert.Equal(t, 1, c.transacts)
}

func TestGetStatus(t *testing.T) {
	c := &fakeContract{calls: map[string]callFunc{
		"getStatus": func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error) {
			switch params[0].(*mbig.Int).Uint64() {
			case 42:
				return []interface{}{uint8(6)}, nil
			case 43:
				return []interface{}{uint8(200)}, nil
			default:
				return nil, errors.New("connection refused")
			}
		},
	}}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, nil)
	ctx := context.Background()

	status, err := g.GetStatus(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, types.DealStatusFinalized, status)

	status, err = g.GetStatus(ctx, 43)
	require.NoError(t, err)
	assert.Equal(t, types.DealStatusNone, status)

	_, err = g.GetStatus(ctx, 44)
	assert.ErrorIs(t, err, types.ErrQuery)
}

func TestGetDeal(t *testing.T) {
	c := &fakeContract{calls: map[string]callFunc{
		"getDeal": func(opts *bind.CallOpts, params ...interface{}) ([]interface{}, error) {
			switch params[0].(*mbig.Int).Uint64() {
			case 42:
				return dealTuple(2, usdcAddress), nil
			case 43:
				return dealTuple(0, common.Address{}), nil
			default:
				return nil, errors.New("connection refused")
			}
		},
	}}
	g, _ := newTestGateway(t, ProfileBanyanV3, c, nil)
	ctx := context.Background()

	deal, err := g.GetDeal(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, types.DealStatusAccepted, deal.Status)
	assert.Equal(t, "USDC", deal.TokenDenomination)

	_, err = g.GetDeal(ctx, 43)
	assert.ErrorIs(t, err, types.ErrDealNotFound)
	assert.NotErrorIs(t, err, types.ErrQuery)

	_, err = g.GetDeal(ctx, 44)
	assert.ErrorIs(t, err, types.ErrQuery)
	assert.NotErrorIs(t, err, types.ErrDealNotFound)
}

func TestNewGatewayInvalidAddress(t *testing.T) {
	p, err := LookupProfile("")
	require.NoError(t, err)
	_, err = NewGateway(nil, "not-an-address", p, nil)
	assert.ErrorIs(t, err, types.ErrInvalidInput)
}
