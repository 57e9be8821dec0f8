package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"
)

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		id             BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		schedule_date  DATE            NOT NULL,
		week_number    INT             NOT NULL,
		day_name       VARCHAR(16)     NOT NULL,
		assignments    JSON            NOT NULL,
		json_synced_at DATETIME        NULL,
		created_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY udx_schedules_01 (schedule_date),
		KEY idx_schedules_01 (week_number)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS employees (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		name        VARCHAR(150)    NOT NULL,
		access_code CHAR(5)         NOT NULL,
		email       VARCHAR(150)    NULL,
		is_verified TINYINT(1)      NOT NULL DEFAULT 0,
		created_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME        NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY udx_employees_01 (name),
		UNIQUE KEY udx_employees_02 (access_code)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		schedule_date  DATE     NOT NULL UNIQUE,
		week_number    INTEGER  NOT NULL,
		day_name       TEXT     NOT NULL,
		assignments    TEXT     NOT NULL,
		json_synced_at DATETIME NULL,
		created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_01 ON schedules (week_number)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		name        TEXT     NOT NULL UNIQUE,
		access_code TEXT     NOT NULL UNIQUE,
		email       TEXT     NULL,
		is_verified BOOLEAN  NOT NULL DEFAULT 0,
		created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
}

// EnsureSchema creates the schedules and employees tables when missing.
func EnsureSchema(db *sqlx.DB) error {
	stmts := mysqlSchema
	if db.DriverName() == DriverSQLite {
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	log.Infof("[DB] schema ready (driver: %s)", db.DriverName())
	return nil
}
