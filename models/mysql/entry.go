package mysql

import (
	"context"
	"time"

	"github.com/filecoin-project/go-state-types/big"
	"golang.org/x/xerrors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/banyancomputer/banyan-client/models/repo"
	"github.com/banyancomputer/banyan-client/types"
)

const entryTableName = "upload_entries"

type uploadEntry struct {
	ID       string `gorm:"column:id;type:varchar(64);primary_key"`
	FilePath string `gorm:"column:file_path;type:varchar(1024);"`
	FileName string `gorm:"column:file_name;type:varchar(256);"`
	FileSize int64  `gorm:"column:file_size;type:bigint;"`
	State    int    `gorm:"column:state;type:int;index"`

	ExecutorAddress        string `gorm:"column:executor_address;type:varchar(128);"`
	DealLengthInBlocks     uint64 `gorm:"column:deal_length_in_blocks;type:bigint unsigned;"`
	ProofFrequencyInBlocks uint64 `gorm:"column:proof_frequency_in_blocks;type:bigint unsigned;"`
	Bounty                 string `gorm:"column:bounty;type:varchar(256);"`
	Collateral             string `gorm:"column:collateral;type:varchar(256);"`
	TokenDenomination      string `gorm:"column:token_denomination;type:varchar(128);"`
	ProposalFileSize       uint64 `gorm:"column:proposal_file_size;type:bigint unsigned;"`
	ContentID              string `gorm:"column:content_id;type:varchar(256);"`
	IntegrityHash          string `gorm:"column:integrity_hash;type:varchar(256);"`

	Staged         bool   `gorm:"column:staged;"`
	StagingCid     string `gorm:"column:staging_cid;type:varchar(256);"`
	StagingHash    string `gorm:"column:staging_hash;type:varchar(256);"`
	StagingID      string `gorm:"column:staging_id;type:varchar(128);"`
	DealID         uint64 `gorm:"column:deal_id;type:bigint unsigned;index"`
	TxHash         string `gorm:"column:tx_hash;type:varchar(128);"`
	Message        string `gorm:"column:message;type:text;"`
	CreatedAtNanos int64  `gorm:"column:created_at;type:bigint;"`
	UpdatedAtNanos int64  `gorm:"column:updated_at;type:bigint;"`
}

func (e *uploadEntry) TableName() string {
	return entryTableName
}

func fromEntry(src *types.Entry) *uploadEntry {
	e := &uploadEntry{
		ID:                     src.ID,
		FilePath:               src.FilePath,
		FileName:               src.FileName,
		FileSize:               src.FileSize,
		State:                  int(src.State),
		ExecutorAddress:        src.Proposal.ExecutorAddress,
		DealLengthInBlocks:     src.Proposal.DealLengthInBlocks,
		ProofFrequencyInBlocks: src.Proposal.ProofFrequencyInBlocks,
		Bounty:                 amountString(src.Proposal.Bounty),
		Collateral:             amountString(src.Proposal.Collateral),
		TokenDenomination:      src.Proposal.TokenDenomination,
		ProposalFileSize:       src.Proposal.FileSize,
		ContentID:              src.Proposal.ContentID,
		IntegrityHash:          src.Proposal.IntegrityHash,
		DealID:                 uint64(src.DealID),
		TxHash:                 src.TxHash,
		Message:                src.Message,
		CreatedAtNanos:         src.CreatedAt.UnixNano(),
		UpdatedAtNanos:         src.UpdatedAt.UnixNano(),
	}
	if src.Staging != nil {
		e.Staged = true
		e.StagingCid = src.Staging.ContentID
		e.StagingHash = src.Staging.IntegrityHash
		e.StagingID = src.Staging.StagingID
	}
	return e
}

func toEntry(src *uploadEntry) (*types.Entry, error) {
	bounty, err := parseAmount(src.Bounty)
	if err != nil {
		return nil, xerrors.Errorf("entry %s bounty: %w", src.ID, err)
	}
	collateral, err := parseAmount(src.Collateral)
	if err != nil {
		return nil, xerrors.Errorf("entry %s collateral: %w", src.ID, err)
	}
	e := &types.Entry{
		ID:       src.ID,
		FilePath: src.FilePath,
		FileName: src.FileName,
		FileSize: src.FileSize,
		State:    types.EntryState(src.State),
		Proposal: types.DealProposal{
			ExecutorAddress:        src.ExecutorAddress,
			DealLengthInBlocks:     src.DealLengthInBlocks,
			ProofFrequencyInBlocks: src.ProofFrequencyInBlocks,
			Bounty:                 bounty,
			Collateral:             collateral,
			TokenDenomination:      src.TokenDenomination,
			FileSize:               src.ProposalFileSize,
			ContentID:              src.ContentID,
			IntegrityHash:          src.IntegrityHash,
		},
		DealID:    types.DealID(src.DealID),
		TxHash:    src.TxHash,
		Message:   src.Message,
		CreatedAt: time.Unix(0, src.CreatedAtNanos),
		UpdatedAt: time.Unix(0, src.UpdatedAtNanos),
	}
	if src.Staged {
		e.Staging = &types.StagingResult{
			ContentID:     src.StagingCid,
			IntegrityHash: src.StagingHash,
			StagingID:     src.StagingID,
		}
	}
	return e, nil
}

func amountString(a types.TokenAmount) string {
	if a.Nil() {
		return ""
	}
	return a.String()
}

func parseAmount(s string) (types.TokenAmount, error) {
	if s == "" {
		return big.Zero(), nil
	}
	return big.FromString(s)
}

type entryRepo struct {
	*gorm.DB
	closer func() error
}

var _ repo.EntryRepo = (*entryRepo)(nil)

// NewEntryRepo stores entries in any gorm dialect. The table is created on
// demand by AutoMigrate.
func NewEntryRepo(db *gorm.DB, closer func() error) repo.EntryRepo {
	return &entryRepo{DB: db, closer: closer}
}

// AutoMigrate creates or updates the entry table.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&uploadEntry{})
}

func (r *entryRepo) SaveEntry(ctx context.Context, e *types.Entry) error {
	if e.ID == "" {
		return xerrors.Errorf("%w: entry without id", types.ErrInvalidInput)
	}
	return r.DB.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(fromEntry(e)).Error
}

func (r *entryRepo) GetEntry(ctx context.Context, id string) (*types.Entry, error) {
	var e uploadEntry
	err := r.DB.WithContext(ctx).Take(&e, "id = ?", id).Error
	if err != nil {
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.Errorf("entry %s: %w", id, types.ErrEntryNotFound)
		}
		return nil, err
	}
	return toEntry(&e)
}

func (r *entryRepo) ListEntries(ctx context.Context) ([]*types.Entry, error) {
	var rows []*uploadEntry
	if err := r.DB.WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]*types.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := toEntry(row)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, nil
}

func (r *entryRepo) GetEntryByDealID(ctx context.Context, id types.DealID) (*types.Entry, error) {
	states := []int{
		int(types.EntrySubmitted),
		int(types.EntrySubmitAmbiguous),
		int(types.EntryRecorded),
		int(types.EntryPersistFailed),
	}
	var e uploadEntry
	err := r.DB.WithContext(ctx).Take(&e, "deal_id = ? AND state IN ?", uint64(id), states).Error
	if err != nil {
		if xerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerrors.Errorf("deal %s: %w", id, types.ErrEntryNotFound)
		}
		return nil, err
	}
	return toEntry(&e)
}

func (r *entryRepo) DeleteEntry(ctx context.Context, id string) error {
	res := r.DB.WithContext(ctx).Delete(&uploadEntry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return xerrors.Errorf("entry %s: %w", id, types.ErrEntryNotFound)
	}
	return nil
}

func (r *entryRepo) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
