package leveldb

import (
	levelds "github.com/ipfs/go-ds-leveldb"
	ldbopts "github.com/syndtr/goleveldb/leveldb/opt"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/models/badger"
	"github.com/banyancomputer/banyan-client/models/repo"
)

// OpenEntryRepo opens (or creates) a leveldb datastore at path. Entries use
// the same datastore layout as the badger repo.
func OpenEntryRepo(path string) (repo.EntryRepo, error) {
	ds, err := levelds.NewDatastore(path, &levelds.Options{
		Compression: ldbopts.NoCompression,
		NoSync:      false,
		Strict:      ldbopts.StrictAll,
		ReadOnly:    false,
	})
	if err != nil {
		return nil, xerrors.Errorf("open leveldb datastore %s: %w", path, err)
	}
	return badger.NewEntryRepo(badger.NewEntryDS(ds), ds.Close), nil
}
