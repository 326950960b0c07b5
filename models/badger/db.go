package badger

import (
	"github.com/ipfs/go-datastore"
	"github.com/ipfs/go-datastore/namespace"
	badger "github.com/ipfs/go-ds-badger2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/models/repo"
)

const entryNamespace = "/entries"

// EntryDS is the datastore namespace upload entries live in.
type EntryDS datastore.Batching

func NewEntryDS(ds datastore.Batching) EntryDS {
	return namespace.Wrap(ds, datastore.NewKey(entryNamespace))
}

// OpenEntryRepo opens (or creates) a badger datastore at path.
func OpenEntryRepo(path string) (repo.EntryRepo, error) {
	opts := badger.DefaultOptions
	db, err := badger.NewDatastore(path, &opts)
	if err != nil {
		return nil, xerrors.Errorf("open badger datastore %s: %w", path, err)
	}
	return NewEntryRepo(NewEntryDS(db), db.Close), nil
}
