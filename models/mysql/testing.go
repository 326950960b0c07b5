package mysql

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/banyancomputer/banyan-client/models/repo"
)

func setup(t *testing.T) (repo.EntryRepo, sqlmock.Sqlmock, *sql.DB) {
	sqlDB, mock, err := sqlmock.New()
	assert.NoError(t, err)

	mock.ExpectQuery("SELECT VERSION()").WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(""))

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn: sqlDB,
	}))
	assert.NoError(t, err)

	return NewEntryRepo(gormDB, nil), mock, sqlDB
}

func wrapper(f func(*testing.T, repo.EntryRepo, sqlmock.Sqlmock), r repo.EntryRepo, mock sqlmock.Sqlmock) func(t *testing.T) {
	return func(t *testing.T) {
		f(t, r, mock)
	}
}

func closeDB(mock sqlmock.Sqlmock, sqlDB *sql.DB) error {
	mock.ExpectClose()
	return sqlDB.Close()
}

func getSqliteDryrunDB() (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(":memory:"), &gorm.Config{DryRun: true})
}

func getMysqlDryrunDB() (*gorm.DB, error) {
	sqlDB, _, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	return gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		DryRun:                 true,
		SkipDefaultTransaction: true,
	})
}

// getFullRows renders rows holding every column of the given gorm models.
func getFullRows(objs ...interface{}) (*sqlmock.Rows, error) {
	if len(objs) == 0 {
		return nil, fmt.Errorf("values is empty")
	}

	db, err := getSqliteDryrunDB()
	if err != nil {
		return nil, err
	}
	if err := db.Statement.Parse(objs[0]); err != nil {
		return nil, err
	}

	schema := db.Statement.Schema
	rows := sqlmock.NewRows(schema.DBNames)
	for _, obj := range objs {
		rv := reflect.ValueOf(obj)
		if rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if rv.Kind() != reflect.Struct {
			return nil, fmt.Errorf("value is not struct")
		}

		row := make([]driver.Value, 0, len(schema.DBNames))
		for _, dbName := range schema.DBNames {
			field := rv
			for _, name := range schema.FieldsByDBName[dbName].BindNames {
				field = field.FieldByName(name)
			}
			row = append(row, field.Interface())
		}
		rows.AddRow(row...)
	}
	return rows, nil
}

func getSQL(db *gorm.DB) (sql string, vars []driver.Value, err error) {
	stmt := db.Statement
	sql = stmt.SQL.String()

	vars = make([]driver.Value, 0, len(stmt.Vars))
	for _, v := range stmt.Vars {
		vars = append(vars, v)
	}

	return sql, vars, nil
}
