package models

import (
	"path/filepath"

	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/banyancomputer/banyan-client/config"
	"github.com/banyancomputer/banyan-client/models/badger"
	"github.com/banyancomputer/banyan-client/models/leveldb"
	"github.com/banyancomputer/banyan-client/models/mysql"
	"github.com/banyancomputer/banyan-client/models/repo"
	"github.com/banyancomputer/banyan-client/models/sqlite"
	"github.com/banyancomputer/banyan-client/types"
)

var log = logging.Logger("models")

// OpenEntryRepo opens the entry repo selected by cfg. Relative paths are
// resolved against the repo directory home.
func OpenEntryRepo(cfg *config.Repo, home string) (repo.EntryRepo, error) {
	log.Debugw("open entry repo", "type", cfg.Type, "home", home)
	switch cfg.Type {
	case config.RepoBadger, "":
		return badger.OpenEntryRepo(resolve(home, cfg.Path))
	case config.RepoLeveldb:
		return leveldb.OpenEntryRepo(resolve(home, cfg.Path))
	case config.RepoSqlite:
		sqliteCfg := cfg.Sqlite
		sqliteCfg.Path = resolve(home, sqliteCfg.Path)
		return sqlite.OpenSqlite(&sqliteCfg)
	case config.RepoMysql:
		return mysql.OpenMysql(&cfg.Mysql)
	default:
		return nil, xerrors.Errorf("%w: unsupported repo type %s", types.ErrInvalidInput, cfg.Type)
	}
}

func resolve(home, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(home, p)
}
