package sqlite

import (
	"golang.org/x/xerrors"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/banyancomputer/banyan-client/config"
	"github.com/banyancomputer/banyan-client/models/mysql"
	"github.com/banyancomputer/banyan-client/models/repo"
)

// OpenSqlite opens the entry table in a sqlite file. The gorm model is shared
// with the mysql repo.
func OpenSqlite(cfg *config.SqliteConfig) (repo.EntryRepo, error) {
	//cache=shared&_journal_mode=wal&sync=normal
	db, err := gorm.Open(sqlite.Open(cfg.Path+"?cache=shared&_journal_mode=wal&sync=normal"), &gorm.Config{})
	if err != nil {
		return nil, xerrors.Errorf("fail to connect sqlite: %s %w", cfg.Path, err)
	}

	if cfg.Debug {
		db = db.Debug()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := mysql.AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, xerrors.Errorf("migrate entry table: %w", err)
	}
	return mysql.NewEntryRepo(db, sqlDB.Close), nil
}
