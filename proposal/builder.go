package proposal

import (
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/types"
)

const (
	// TiB is the unit the current contract revision prices storage in.
	TiB uint64 = 1 << 40
	// Byte is the unit used by per-byte contract revisions.
	Byte uint64 = 1

	// BlocksPerYear approximates one year of Ethereum blocks.
	BlocksPerYear = 365 * 6344

	DefaultExecutorAddress   = "0x0000000000000000000000000000000000000000"
	DefaultTokenDenomination = "USDC"
	DefaultTokenDecimals     = 6
)

// DefaultDealConfiguration returns the terms offered when the user does not
// configure any.
func DefaultDealConfiguration() types.DealConfiguration {
	return types.DealConfiguration{
		ExecutorAddress:        DefaultExecutorAddress,
		DealLengthInBlocks:     BlocksPerYear,
		ProofFrequencyInBlocks: 1,
		BountyPerUnit:          types.MustParseTokenAmount("10", DefaultTokenDecimals),
		CollateralPerUnit:      types.MustParseTokenAmount("0.01", DefaultTokenDecimals),
		TokenDenomination:      DefaultTokenDenomination,
	}
}

// Builder derives file specific proposals from a DealConfiguration. UnitSize is
// the number of bytes the configured per-unit rates refer to.
type Builder struct {
	UnitSize uint64
}

func NewBuilder(unitSize uint64) Builder {
	return Builder{UnitSize: unitSize}
}

// BuildProposal prices the file in TiB units.
func BuildProposal(cfg types.DealConfiguration, file types.FileInfo) (*types.DealProposal, error) {
	return NewBuilder(TiB).Build(cfg, file)
}

// Build scales the configured rates by the file size. The returned proposal has
// no content id or integrity hash yet.
func (b Builder) Build(cfg types.DealConfiguration, file types.FileInfo) (*types.DealProposal, error) {
	if file.Size <= 0 {
		return nil, xerrors.Errorf("%w: file %q has size %d", types.ErrInvalidInput, file.Name, file.Size)
	}
	if b.UnitSize == 0 {
		return nil, xerrors.Errorf("%w: unit size must be positive", types.ErrInvalidInput)
	}

	size := uint64(file.Size)
	bounty, err := types.ScaleBySize(cfg.BountyPerUnit, size, b.UnitSize)
	if err != nil {
		return nil, err
	}
	collateral, err := types.ScaleBySize(cfg.CollateralPerUnit, size, b.UnitSize)
	if err != nil {
		return nil, err
	}

	return &types.DealProposal{
		ExecutorAddress:        cfg.ExecutorAddress,
		DealLengthInBlocks:     cfg.DealLengthInBlocks,
		ProofFrequencyInBlocks: cfg.ProofFrequencyInBlocks,
		Bounty:                 bounty,
		Collateral:             collateral,
		TokenDenomination:      cfg.TokenDenomination,
		FileSize:               size,
	}, nil
}

// FinalizeProposal returns a copy of p carrying the content id and integrity
// hash reported by staging. p itself is left untouched.
func FinalizeProposal(p *types.DealProposal, contentID, integrityHash string) (*types.DealProposal, error) {
	if p == nil {
		return nil, xerrors.Errorf("%w: nil proposal", types.ErrInvalidInput)
	}
	if contentID == "" || integrityHash == "" {
		return nil, xerrors.Errorf("%w: content id and integrity hash are required", types.ErrInvalidInput)
	}

	out := *p
	out.ContentID = contentID
	out.IntegrityHash = integrityHash
	return &out, nil
}
