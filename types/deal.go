package types

import (
	"strconv"

	"golang.org/x/xerrors"
)

// DealID is the identifier the contract assigns to a created deal.
type DealID uint64

func (id DealID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseDealID parses the decimal form printed by DealID.String.
func ParseDealID(s string) (DealID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, xerrors.Errorf("%w: bad deal id %q: %v", ErrInvalidInput, s, err)
	}
	return DealID(v), nil
}

// DealConfiguration holds the file-agnostic terms a user offers. Rates are
// per unit of file size, where the unit is chosen by the proposal builder.
type DealConfiguration struct {
	ExecutorAddress        string
	DealLengthInBlocks     uint64
	ProofFrequencyInBlocks uint64
	BountyPerUnit          TokenAmount
	CollateralPerUnit      TokenAmount
	TokenDenomination      string
}

// FileInfo describes the local file a proposal is built for.
type FileInfo struct {
	Name string
	Size int64
}

// DealProposal is the file specific proposal sent to the contract. It is
// created with empty content fields and finalized once staging completes.
type DealProposal struct {
	ExecutorAddress        string
	DealLengthInBlocks     uint64
	ProofFrequencyInBlocks uint64
	Bounty                 TokenAmount
	Collateral             TokenAmount
	TokenDenomination      string
	FileSize               uint64
	ContentID              string
	IntegrityHash          string
}

// Submittable returns nil iff the proposal carries a content id, an integrity
// hash and a positive file size.
func (p *DealProposal) Submittable() error {
	switch {
	case p == nil:
		return xerrors.Errorf("%w: nil proposal", ErrInvalidProposal)
	case p.FileSize == 0:
		return xerrors.Errorf("%w: file size must be positive", ErrInvalidProposal)
	case p.ContentID == "":
		return xerrors.Errorf("%w: content id is missing", ErrInvalidProposal)
	case p.IntegrityHash == "":
		return xerrors.Errorf("%w: integrity hash is missing", ErrInvalidProposal)
	}
	return nil
}

// Deal is a read-through projection of a deal stored by the contract.
type Deal struct {
	ID                     DealID
	Status                 DealStatus
	CreatorAddress         string
	ExecutorAddress        string
	DealStartBlock         uint64
	DealLengthInBlocks     uint64
	ProofFrequencyInBlocks uint64
	Bounty                 TokenAmount
	Collateral             TokenAmount
	TokenDenomination      string
	FileSize               uint64
	ContentID              string
	IntegrityHash          string
}

// StagingResult is what the staging service reports for an uploaded file.
type StagingResult struct {
	ContentID     string
	IntegrityHash string
	StagingID     string
}
