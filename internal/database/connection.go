package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"

	// MySQL 'Duplicate entry'
	ErrMySQLDuplicateEntry = 1062
)

// DBI holds what is needed to open the repository database.
// Path is only used by the sqlite3 driver.
type DBI struct {
	Driver   string
	User     string
	Password string
	Endpoint string
	Port     int
	Database string
	Path     string
}

// CreateConnection opens and pings the database described by i.
func CreateConnection(i DBI) (*sqlx.DB, error) {
	switch i.Driver {
	case "", DriverMySQL:
		DSN := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			i.User, i.Password, i.Endpoint, i.Port, i.Database)

		return sqlx.Connect(DriverMySQL, DSN)
	case DriverSQLite:
		return OpenSQLite(i.Path)
	default:
		return nil, fmt.Errorf("unsupported DB driver %q", i.Driver)
	}
}

// OpenSQLite opens a sqlite database file. SQLite allows a single writer,
// so the pool is pinned to one connection.
func OpenSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	db, err := sqlx.Connect(DriverSQLite, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// IsDuplicateEntry reports whether err is a unique constraint violation
// on either supported driver.
func IsDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == ErrMySQLDuplicateEntry
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
