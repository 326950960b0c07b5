package badger

import (
	badger "github.com/ipfs/go-ds-badger2"

	"github.com/banyancomputer/banyan-client/models/repo"
)

// NewMemRepo returns an entry repo backed by an in-memory badger instance.
func NewMemRepo() (repo.EntryRepo, error) {
	opts := badger.DefaultOptions
	opts.InMemory = true
	db, err := badger.NewDatastore("", &opts)
	if err != nil {
		return nil, err
	}
	return NewEntryRepo(NewEntryDS(db), db.Close), nil
}
