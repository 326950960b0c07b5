package badger

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/query"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/models/repo"
	"github.com/banyancomputer/banyan-client/types"
)

type badgerEntryRepo struct {
	ds     datastore.Batching
	closer func() error
}

var _ repo.EntryRepo = (*badgerEntryRepo)(nil)

func NewEntryRepo(ds EntryDS, closer func() error) repo.EntryRepo {
	return &badgerEntryRepo{ds: ds, closer: closer}
}

func (r *badgerEntryRepo) SaveEntry(ctx context.Context, e *types.Entry) error {
	if e.ID == "" {
		return xerrors.Errorf("%w: entry without id", types.ErrInvalidInput)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return r.ds.Put(ctx, keyFromEntryID(e.ID), data)
}

func (r *badgerEntryRepo) GetEntry(ctx context.Context, id string) (*types.Entry, error) {
	data, err := r.ds.Get(ctx, keyFromEntryID(id))
	if err != nil {
		if xerrors.Is(err, datastore.ErrNotFound) {
			return nil, xerrors.Errorf("entry %s: %w", id, types.ErrEntryNotFound)
		}
		return nil, err
	}
	var e types.Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *badgerEntryRepo) ListEntries(ctx context.Context) (entries []*types.Entry, err error) {
	result, err := r.ds.Query(ctx, query.Query{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := result.Close(); err == nil {
			err = cerr
		}
	}()

	for res := range result.Next() {
		if res.Error != nil {
			return nil, res.Error
		}
		var e types.Entry
		if err := json.Unmarshal(res.Value, &e); err != nil {
			return nil, xerrors.Errorf("decode entry %s: %w", res.Key, err)
		}
		entries = append(entries, &e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *badgerEntryRepo) GetEntryByDealID(ctx context.Context, id types.DealID) (*types.Entry, error) {
	entries, err := r.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.DealID == id && e.State.HasDeal() {
			return e, nil
		}
	}
	return nil, xerrors.Errorf("deal %s: %w", id, types.ErrEntryNotFound)
}

func (r *badgerEntryRepo) DeleteEntry(ctx context.Context, id string) error {
	key := keyFromEntryID(id)
	has, err := r.ds.Has(ctx, key)
	if err != nil {
		return err
	}
	if !has {
		return xerrors.Errorf("entry %s: %w", id, types.ErrEntryNotFound)
	}
	return r.ds.Delete(ctx, key)
}

func (r *badgerEntryRepo) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}

func keyFromEntryID(id string) datastore.Key {
	return datastore.KeyWithNamespaces([]string{id})
}
