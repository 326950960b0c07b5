package repo

import (
	"context"

	"github.com/banyancomputer/banyan-client/types"
)

// EntryRepo persists upload entries between runs. Get and Delete return an
// error matching types.ErrEntryNotFound for unknown ids.
type EntryRepo interface {
	SaveEntry(ctx context.Context, e *types.Entry) error
	GetEntry(ctx context.Context, id string) (*types.Entry, error)
	// ListEntries returns entries oldest first.
	ListEntries(ctx context.Context) ([]*types.Entry, error)
	// GetEntryByDealID finds the entry a deal was created for.
	GetEntryByDealID(ctx context.Context, id types.DealID) (*types.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
	Close() error
}
