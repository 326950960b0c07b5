package mysql

import (
	"golang.org/x/xerrors"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/banyancomputer/banyan-client/config"
	"github.com/banyancomputer/banyan-client/models/repo"
)

func OpenMysql(cfg *config.MySqlConfig) (repo.EntryRepo, error) {
	db, err := gorm.Open(mysql.Open(cfg.ConnectionString), &gorm.Config{})
	if err != nil {
		return nil, xerrors.Errorf("[db connection failed] Database name: %s %w", cfg.ConnectionString, err)
	}

	db.Set("gorm:table_options", "CHARSET=utf8mb4")
	if cfg.Debug {
		db = db.Debug()
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConn)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConn)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifeTime.Std())

	if err := AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, xerrors.Errorf("migrate entry table: %w", err)
	}
	return NewEntryRepo(db, sqlDB.Close), nil
}
