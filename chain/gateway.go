package chain

import (
	"context"
	"errors"
	"fmt"
	mbig "math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rpc"
	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/metrics"
	"github.com/banyancomputer/banyan-client/types"
)

var log = logging.Logger("chain")

const DefaultConfirmationTimeout = 5 * time.Minute

// Backend is the node connection a gateway needs. *ethclient.Client
// satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
	ChainID(ctx context.Context) (*mbig.Int, error)
}

// contract is the subset of *bind.BoundContract used by the gateway.
type contract interface {
	Call(opts *bind.CallOpts, results *[]interface{}, method string, params ...interface{}) error
	Transact(opts *bind.TransactOpts, method string, params ...interface{}) (*ethtypes.Transaction, error)
}

// ReceiptWaiter blocks until tx is mined or ctx is done.
type ReceiptWaiter func(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error)

type Option func(*Gateway)

// WithConfirmationTimeout bounds the wait for a submitted transaction.
func WithConfirmationTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.confirmTimeout = d
		}
	}
}

// WithChainID skips asking the node for its chain id.
func WithChainID(id *mbig.Int) Option {
	return func(g *Gateway) {
		if id != nil && id.Sign() > 0 {
			g.chainID = new(mbig.Int).Set(id)
		}
	}
}

// WithTokens sets the token book used for address typed denominations.
func WithTokens(tokens TokenBook) Option {
	return func(g *Gateway) {
		g.tokens = tokens
	}
}

// WithReceiptWaiter replaces bind.WaitMined.
func WithReceiptWaiter(w ReceiptWaiter) Option {
	return func(g *Gateway) {
		if w != nil {
			g.waitMined = w
		}
	}
}

// Gateway submits deal proposals to the Banyan contract and reads deals back.
// The ABI profile is fixed at construction.
type Gateway struct {
	address  common.Address
	profile  *Profile
	wallet   Wallet
	contract contract
	tokens   TokenBook
	chainIDF func(ctx context.Context) (*mbig.Int, error)

	confirmTimeout time.Duration
	waitMined      ReceiptWaiter

	lk      sync.Mutex
	chainID *mbig.Int

	// held from nonce lookup until the transaction is in the pool
	sendLk sync.Mutex
}

func NewGateway(backend Backend, contractAddress string, profile *Profile, wallet Wallet, opts ...Option) (*Gateway, error) {
	if !common.IsHexAddress(contractAddress) {
		return nil, xerrors.Errorf("%w: contract address %q is not a hex address", types.ErrInvalidInput, contractAddress)
	}
	if profile == nil {
		return nil, xerrors.Errorf("%w: no contract profile", types.ErrInvalidInput)
	}
	addr := common.HexToAddress(contractAddress)
	bound := bind.NewBoundContract(addr, profile.ABI, backend, backend, backend)

	g := newGateway(addr, profile, wallet, bound, backend.ChainID)
	g.waitMined = func(ctx context.Context, tx *ethtypes.Transaction) (*ethtypes.Receipt, error) {
		return bind.WaitMined(ctx, backend, tx)
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func newGateway(addr common.Address, profile *Profile, wallet Wallet, c contract, chainID func(ctx context.Context) (*mbig.Int, error)) *Gateway {
	return &Gateway{
		address:        addr,
		profile:        profile,
		wallet:         wallet,
		contract:       c,
		tokens:         TokenBook{},
		chainIDF:       chainID,
		confirmTimeout: DefaultConfirmationTimeout,
	}
}

func (g *Gateway) Profile() *Profile {
	return g.profile
}

func (g *Gateway) Address() common.Address {
	return g.address
}

func (g *Gateway) Tokens() TokenBook {
	return g.tokens
}

func (g *Gateway) getChainID(ctx context.Context) (*mbig.Int, error) {
	g.lk.Lock()
	defer g.lk.Unlock()
	if g.chainID != nil {
		return g.chainID, nil
	}
	if g.chainIDF == nil {
		return nil, xerrors.New("chain id unknown")
	}
	id, err := g.chainIDF(ctx)
	if err != nil {
		return nil, err
	}
	g.chainID = id
	return id, nil
}

// Submit sends p to the contract and waits for the assigned deal id. It sends
// at most one transaction.
func (g *Gateway) Submit(ctx context.Context, p *types.DealProposal) (id types.DealID, err error) {
	if err := p.Submittable(); err != nil {
		return 0, err
	}
	params, err := g.profile.EncodeCreate(p, g.tokens)
	if err != nil {
		return 0, err
	}
	if g.wallet == nil {
		return 0, xerrors.Errorf("%w: no wallet connected", types.ErrAuthRequired)
	}

	start := time.Now()
	defer func() {
		recordSubmit(ctx, g.profile.Name, err, time.Since(start))
	}()

	chainID, err := g.getChainID(ctx)
	if err != nil {
		return 0, &types.QueryError{Op: "chain id", Err: err}
	}
	auth, err := g.wallet.Transactor(ctx, chainID)
	if err != nil {
		return 0, xerrors.Errorf("wallet transactor: %w", err)
	}

	g.sendLk.Lock()
	tx, err := g.contract.Transact(auth, g.profile.CreateMethod, params...)
	g.sendLk.Unlock()
	if err != nil {
		if ctx.Err() != nil {
			return 0, xerrors.Errorf("%w: sending %s: %v", types.ErrTimeout, g.profile.CreateMethod, err)
		}
		return 0, &types.ChainRejected{Contract: g.address.Hex(), Detail: revertDetail(err), Err: err}
	}
	txHash := tx.Hash().Hex()
	log.Infow("deal proposal sent", "tx", txHash, "method", g.profile.CreateMethod, "contract", g.address.Hex())

	waitCtx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()
	receipt, err := g.waitMined(waitCtx, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return 0, &types.SubmissionAmbiguous{
				TxHash: txHash,
				Reason: fmt.Sprintf("not confirmed within %s", g.confirmTimeout),
				Err:    types.ErrTimeout,
			}
		}
		return 0, &types.SubmissionAmbiguous{TxHash: txHash, Reason: err.Error()}
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return 0, &types.ChainRejected{
			Contract: g.address.Hex(),
			TxHash:   txHash,
			Detail:   "transaction reverted",
		}
	}

	switch g.profile.Extraction {
	case ExtractEvent:
		id, err = g.idFromLogs(receipt)
	default:
		id, err = g.idFromReturn(ctx, auth.From, receipt, params)
		if err == nil && id != 0 {
			err = g.checkCreated(ctx, id, auth.From, p, receipt.BlockNumber)
		}
	}
	if err != nil {
		return 0, &types.SubmissionAmbiguous{TxHash: txHash, Reason: err.Error()}
	}
	if id == 0 {
		return 0, &types.SubmissionAmbiguous{TxHash: txHash, Reason: "contract reported deal id 0"}
	}

	log.Infow("deal created", "deal", id, "tx", txHash, "block", receipt.BlockNumber)
	return id, nil
}

// idFromReturn replays the create call against the state the transaction was
// executed on to read the value it returned.
func (g *Gateway) idFromReturn(ctx context.Context, from common.Address, receipt *ethtypes.Receipt, params []interface{}) (types.DealID, error) {
	if receipt.BlockNumber == nil || receipt.BlockNumber.Sign() <= 0 {
		return 0, xerrors.New("receipt has no block number")
	}
	parent := new(mbig.Int).Sub(receipt.BlockNumber, mbig.NewInt(1))

	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx, From: from, BlockNumber: parent}, &out, g.profile.CreateMethod, params...)
	if err != nil {
		return 0, xerrors.Errorf("replay %s at block %s: %w", g.profile.CreateMethod, parent, err)
	}
	if len(out) != 1 {
		return 0, xerrors.Errorf("%s returned %d values", g.profile.CreateMethod, len(out))
	}
	v, err := toUint64(out[0])
	if err != nil {
		return 0, xerrors.Errorf("decode %s return value: %w", g.profile.CreateMethod, err)
	}
	return types.DealID(v), nil
}

// checkCreated reads deal id back as of the transaction's block and accepts it
// only when it is the record this sender wrote for p. A replay against the
// parent block reports the id another create earlier in the same block got.
func (g *Gateway) checkCreated(ctx context.Context, id types.DealID, from common.Address, p *types.DealProposal, block *mbig.Int) error {
	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx, BlockNumber: block}, &out, g.profile.DealMethod, new(mbig.Int).SetUint64(uint64(id)))
	if err != nil {
		return xerrors.Errorf("read back deal %s: %w", id, err)
	}
	d, raw, err := g.profile.DecodeDeal(id, out, g.tokens)
	if err != nil {
		return xerrors.Errorf("read back deal %s: %w", id, err)
	}
	switch {
	case raw == 0:
		return xerrors.Errorf("deal %s does not exist at block %s", id, block)
	case !common.IsHexAddress(d.CreatorAddress) || common.HexToAddress(d.CreatorAddress) != from:
		return xerrors.Errorf("deal %s was created by %s, not %s", id, d.CreatorAddress, from.Hex())
	case d.ContentID != p.ContentID || d.IntegrityHash != p.IntegrityHash || d.FileSize != p.FileSize:
		return xerrors.Errorf("deal %s holds content %s, not %s", id, d.ContentID, p.ContentID)
	}
	return nil
}

// idFromLogs finds the creation event emitted by this contract.
func (g *Gateway) idFromLogs(receipt *ethtypes.Receipt) (types.DealID, error) {
	ev, ok := g.profile.ABI.Events[g.profile.CreatedEvent]
	if !ok {
		return 0, xerrors.Errorf("abi has no event %s", g.profile.CreatedEvent)
	}
	var indexed abi.Arguments
	for _, in := range ev.Inputs {
		if in.Indexed {
			indexed = append(indexed, in)
		}
	}

	for _, l := range receipt.Logs {
		if l == nil || l.Address != g.address || len(l.Topics) == 0 || l.Topics[0] != ev.ID {
			continue
		}
		fields := map[string]interface{}{}
		if err := abi.ParseTopicsIntoMap(fields, indexed, l.Topics[1:]); err != nil {
			log.Warnw("skip undecodable event topics", "tx", receipt.TxHash.Hex(), "err", err)
			continue
		}
		if len(l.Data) > 0 {
			if err := g.profile.ABI.UnpackIntoMap(fields, ev.Name, l.Data); err != nil {
				log.Warnw("skip undecodable event data", "tx", receipt.TxHash.Hex(), "err", err)
				continue
			}
		}
		raw, ok := fields[g.profile.EventIDField]
		if !ok {
			continue
		}
		v, err := toUint64(raw)
		if err != nil {
			return 0, xerrors.Errorf("decode %s.%s: %w", ev.Name, g.profile.EventIDField, err)
		}
		return types.DealID(v), nil
	}
	return 0, xerrors.Errorf("no %s event from %s in %d logs", ev.Name, g.address.Hex(), len(receipt.Logs))
}

// GetStatus reads the current status of a deal.
func (g *Gateway) GetStatus(ctx context.Context, id types.DealID) (types.DealStatus, error) {
	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, g.profile.StatusMethod, new(mbig.Int).SetUint64(uint64(id)))
	recordQuery(ctx, g.profile.StatusMethod, err)
	if err != nil {
		return types.DealStatusNone, &types.QueryError{Op: g.profile.StatusMethod, Err: err}
	}
	if len(out) != 1 {
		return types.DealStatusNone, &types.QueryError{
			Op:  g.profile.StatusMethod,
			Err: xerrors.Errorf("returned %d values", len(out)),
		}
	}
	raw, err := toUint64(out[0])
	if err != nil {
		return types.DealStatusNone, &types.QueryError{Op: g.profile.StatusMethod, Err: err}
	}
	return g.profile.Codec.Decode(raw), nil
}

// GetDeal reads the full deal record. A record whose raw status is zero does
// not exist.
func (g *Gateway) GetDeal(ctx context.Context, id types.DealID) (*types.Deal, error) {
	var out []interface{}
	err := g.contract.Call(&bind.CallOpts{Context: ctx}, &out, g.profile.DealMethod, new(mbig.Int).SetUint64(uint64(id)))
	recordQuery(ctx, g.profile.DealMethod, err)
	if err != nil {
		return nil, &types.QueryError{Op: g.profile.DealMethod, Err: err}
	}
	deal, raw, err := g.profile.DecodeDeal(id, out, g.tokens)
	if err != nil {
		return nil, &types.QueryError{Op: g.profile.DealMethod, Err: err}
	}
	if raw == 0 {
		return nil, xerrors.Errorf("deal %s: %w", id, types.ErrDealNotFound)
	}
	return deal, nil
}

// revertDetail extracts the revert payload geth attaches to call errors.
func revertDetail(err error) string {
	var de rpc.DataError
	if errors.As(err, &de) && de.ErrorData() != nil {
		return fmt.Sprintf("%s: %v", de.Error(), de.ErrorData())
	}
	return err.Error()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, types.ErrSubmissionAmbiguous):
		return "ambiguous"
	case errors.Is(err, types.ErrChainRejected):
		return "rejected"
	case errors.Is(err, types.ErrTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func recordSubmit(ctx context.Context, profile string, err error, took time.Duration) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.ProfileTag, profile),
		tag.Upsert(metrics.OutcomeTag, outcome(err)),
	}, metrics.ChainSubmitCount.M(1), metrics.ChainSubmitDuration.M(metrics.SinceInMilliseconds(took)))
}

func recordQuery(ctx context.Context, method string, err error) {
	_ = stats.RecordWithTags(ctx, []tag.Mutator{
		tag.Upsert(metrics.MethodTag, method),
		tag.Upsert(metrics.OutcomeTag, outcome(err)),
	}, metrics.ChainQueryCount.M(1))
}
