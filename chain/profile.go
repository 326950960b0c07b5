package chain

import (
	"fmt"
	mbig "math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/proposal"
	"github.com/banyancomputer/banyan-client/types"
)

// IDExtraction selects how the deal id is recovered from a confirmed create
// transaction.
type IDExtraction int

const (
	// ExtractReturnValue replays the create call against the parent block and
	// reads the uint256 it returns.
	ExtractReturnValue IDExtraction = iota
	// ExtractEvent reads the id from the creation event in the receipt logs.
	ExtractEvent
)

func (e IDExtraction) String() string {
	switch e {
	case ExtractReturnValue:
		return "return-value"
	case ExtractEvent:
		return "event"
	default:
		return fmt.Sprintf("IDExtraction(%d)", int(e))
	}
}

// TokenEncoding is how the token denomination argument is typed in the ABI.
type TokenEncoding int

const (
	TokenAsString TokenEncoding = iota
	TokenAsAddress
)

const (
	ProfileOfferV0   = "offer-v0"
	ProfileEthDealV1 = "ethdeal-v1"
	ProfileBanyanV2  = "banyan-v2"
	ProfileBanyanV3  = "banyan-v3"

	DefaultProfile = ProfileBanyanV3
)

// Profile describes one contract revision: its ABI, method names, positional
// encoding, id extraction strategy and status numbering. A gateway resolves
// its profile once at construction.
type Profile struct {
	Name         string
	ABI          abi.ABI
	CreateMethod string
	StatusMethod string
	DealMethod   string
	CreatedEvent string
	EventIDField string
	Extraction   IDExtraction
	Token        TokenEncoding
	UnitSize     uint64
	Codec        StatusCodec
}

var profiles = map[string]*Profile{}

func register(p *Profile, abiJSON string) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("profile %s: bad abi: %v", p.Name, err))
	}
	p.ABI = parsed
	for _, m := range []string{p.CreateMethod, p.StatusMethod, p.DealMethod} {
		if _, ok := parsed.Methods[m]; !ok {
			panic(fmt.Sprintf("profile %s: abi has no method %s", p.Name, m))
		}
	}
	if p.Extraction == ExtractEvent {
		if _, ok := parsed.Events[p.CreatedEvent]; !ok {
			panic(fmt.Sprintf("profile %s: abi has no event %s", p.Name, p.CreatedEvent))
		}
	}
	profiles[p.Name] = p
}

func init() {
	register(&Profile{
		Name:         ProfileOfferV0,
		CreateMethod: "makeOffer",
		StatusMethod: "getOfferStatus",
		DealMethod:   "getOffer",
		Extraction:   ExtractReturnValue,
		Token:        TokenAsString,
		UnitSize:     proposal.TiB,
		Codec: NewStatusCodec(ProfileOfferV0, map[uint64]types.DealStatus{
			0: types.DealStatusNone,
			1: types.DealStatusProposed,  // OFFER_CREATED
			2: types.DealStatusCompleted, // OFFER_COMPLETED
			3: types.DealStatusCancelled, // OFFER_CANCELLED
			4: types.DealStatusCancelled, // OFFER_WITHDRAWN
		}),
	}, offerV0ABI)

	register(&Profile{
		Name:         ProfileEthDealV1,
		CreateMethod: "proposeDeal",
		StatusMethod: "getDealStatus",
		DealMethod:   "getDeal",
		Extraction:   ExtractReturnValue,
		Token:        TokenAsString,
		UnitSize:     proposal.Byte,
		Codec: NewStatusCodec(ProfileEthDealV1, map[uint64]types.DealStatus{
			0: types.DealStatusNone,
			1: types.DealStatusProposed,
			2: types.DealStatusAccepted,
			3: types.DealStatusCancelled, // REJECTED
			4: types.DealStatusTimedOut,  // EXPIRED
			5: types.DealStatusCompleted,
			6: types.DealStatusCancelled, // WITHDRAWN
		}),
	}, ethDealV1ABI)

	register(&Profile{
		Name:         ProfileBanyanV2,
		CreateMethod: "createOffer",
		StatusMethod: "getDealStatus",
		DealMethod:   "getDeal",
		Extraction:   ExtractReturnValue,
		Token:        TokenAsString,
		UnitSize:     proposal.TiB,
		Codec: NewStatusCodec(ProfileBanyanV2, map[uint64]types.DealStatus{
			0: types.DealStatusNone,
			1: types.DealStatusProposed,
			2: types.DealStatusAccepted,
			3: types.DealStatusTimedOut,
			4: types.DealStatusCancelled,
			5: types.DealStatusCompleted,  // COMPLETE
			6: types.DealStatusFinalizing, // FINALIZING
			7: types.DealStatusFinalized,  // DONE
		}),
	}, banyanV2ABI)

	register(&Profile{
		Name:         ProfileBanyanV3,
		CreateMethod: "create",
		StatusMethod: "getStatus",
		DealMethod:   "getDeal",
		CreatedEvent: "DealCreated",
		EventIDField: "dealId",
		Extraction:   ExtractEvent,
		Token:        TokenAsAddress,
		UnitSize:     proposal.TiB,
		Codec: NewStatusCodec(ProfileBanyanV3, map[uint64]types.DealStatus{
			0: types.DealStatusNone,
			1: types.DealStatusProposed,
			2: types.DealStatusAccepted,
			3: types.DealStatusActive,
			4: types.DealStatusCompleted,
			5: types.DealStatusFinalizing,
			6: types.DealStatusFinalized,
			7: types.DealStatusTimedOut,
			8: types.DealStatusCancelled,
		}),
	}, banyanV3ABI)
}

// LookupProfile returns the profile registered under name.
func LookupProfile(name string) (*Profile, error) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := profiles[name]
	if !ok {
		return nil, xerrors.Errorf("unknown contract profile %q, expected one of %s", name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the registered profiles.
func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EncodeCreate lays the proposal out positionally for the create method.
func (p *Profile) EncodeCreate(prop *types.DealProposal, tokens TokenBook) ([]interface{}, error) {
	if !common.IsHexAddress(prop.ExecutorAddress) {
		return nil, xerrors.Errorf("%w: executor address %q is not a hex address", types.ErrInvalidProposal, prop.ExecutorAddress)
	}
	if prop.Bounty.Nil() || prop.Collateral.Nil() {
		return nil, xerrors.Errorf("%w: bounty and collateral must be set", types.ErrInvalidProposal)
	}

	var token interface{}
	switch p.Token {
	case TokenAsAddress:
		addr, err := tokens.Resolve(prop.TokenDenomination)
		if err != nil {
			return nil, xerrors.Errorf("%w: %v", types.ErrInvalidProposal, err)
		}
		token = addr
	default:
		token = prop.TokenDenomination
	}

	return []interface{}{
		common.HexToAddress(prop.ExecutorAddress),
		new(mbig.Int).SetUint64(prop.DealLengthInBlocks),
		new(mbig.Int).SetUint64(prop.ProofFrequencyInBlocks),
		new(mbig.Int).Set(prop.Bounty.Int),
		new(mbig.Int).Set(prop.Collateral.Int),
		token,
		new(mbig.Int).SetUint64(prop.FileSize),
		prop.ContentID,
		prop.IntegrityHash,
	}, nil
}

// dealFields is the number of values returned by every revision's deal getter.
const dealFields = 12

// DecodeDeal converts the positional tuple returned by the deal getter. The
// raw status code is returned alongside so callers can tell the "no such
// deal" sentinel from an unknown code.
func (p *Profile) DecodeDeal(id types.DealID, out []interface{}, tokens TokenBook) (*types.Deal, uint64, error) {
	if len(out) != dealFields {
		return nil, 0, xerrors.Errorf("%s returned %d values, expected %d", p.DealMethod, len(out), dealFields)
	}

	var (
		d   = &types.Deal{ID: id}
		raw uint64
		err error
	)
	if raw, err = toUint64(out[0]); err != nil {
		return nil, 0, xerrors.Errorf("status: %w", err)
	}
	d.Status = p.Codec.Decode(raw)
	if d.CreatorAddress, err = toAddress(out[1]); err != nil {
		return nil, 0, xerrors.Errorf("creator: %w", err)
	}
	if d.ExecutorAddress, err = toAddress(out[2]); err != nil {
		return nil, 0, xerrors.Errorf("executor: %w", err)
	}
	if d.DealStartBlock, err = toUint64(out[3]); err != nil {
		return nil, 0, xerrors.Errorf("start block: %w", err)
	}
	if d.DealLengthInBlocks, err = toUint64(out[4]); err != nil {
		return nil, 0, xerrors.Errorf("deal length: %w", err)
	}
	if d.ProofFrequencyInBlocks, err = toUint64(out[5]); err != nil {
		return nil, 0, xerrors.Errorf("proof frequency: %w", err)
	}
	if d.Bounty, err = toAmount(out[6]); err != nil {
		return nil, 0, xerrors.Errorf("bounty: %w", err)
	}
	if d.Collateral, err = toAmount(out[7]); err != nil {
		return nil, 0, xerrors.Errorf("collateral: %w", err)
	}
	switch v := out[8].(type) {
	case common.Address:
		d.TokenDenomination = tokens.Denomination(v)
	case string:
		d.TokenDenomination = v
	default:
		return nil, 0, xerrors.Errorf("token denomination: unexpected %T", out[8])
	}
	if d.FileSize, err = toUint64(out[9]); err != nil {
		return nil, 0, xerrors.Errorf("file size: %w", err)
	}
	var ok bool
	if d.ContentID, ok = out[10].(string); !ok {
		return nil, 0, xerrors.Errorf("content id: unexpected %T", out[10])
	}
	if d.IntegrityHash, ok = out[11].(string); !ok {
		return nil, 0, xerrors.Errorf("integrity hash: unexpected %T", out[11])
	}

	return d, raw, nil
}

func toUint64(v interface{}) (uint64, error) {
	switch n := v.(type) {
	case *mbig.Int:
		if n == nil || n.Sign() < 0 || !n.IsUint64() {
			return 0, xerrors.Errorf("value %v does not fit uint64", n)
		}
		return n.Uint64(), nil
	case uint8:
		return uint64(n), nil
	case uint16:
		return uint64(n), nil
	case uint32:
		return uint64(n), nil
	case uint64:
		return n, nil
	default:
		return 0, xerrors.Errorf("unexpected %T", v)
	}
}

func toAmount(v interface{}) (types.TokenAmount, error) {
	n, ok := v.(*mbig.Int)
	if !ok || n == nil {
		return big.Zero(), xerrors.Errorf("unexpected %T", v)
	}
	return big.NewFromGo(new(mbig.Int).Set(n)), nil
}

func toAddress(v interface{}) (string, error) {
	addr, ok := v.(common.Address)
	if !ok {
		return "", xerrors.Errorf("unexpected %T", v)
	}
	return addr.Hex(), nil
}
