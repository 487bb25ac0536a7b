package store

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported database driver names
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DriverFactory is a function that creates a gorm.Dialector
type DriverFactory func(dsn string) gorm.Dialector

// driverFactories maps driver names to their factory functions
var driverFactories = map[string]DriverFactory{
	DriverSQLite:   sqlite.Open,
	DriverPostgres: postgres.Open,
	DriverMySQL: func(dsn string) gorm.Dialector {
		return mysql.Open(mysqlDSN(dsn))
	},
}

// mysqlOptions are appended to MySQL DSNs. clientFoundRows makes RowsAffected
// count matched rows, so an UPDATE writing identical values still reports the row.
const mysqlOptions = "charset=utf8mb4&parseTime=True&loc=UTC&clientFoundRows=true"

func mysqlDSN(dsn string) string {
	return mergeOptions(dsn, mysqlOptions)
}

// GetDialector returns a GORM dialector for the given driver name and DSN
func GetDialector(driver, dsn string) (gorm.Dialector, error) {
	factory, exists := driverFactories[driver]
	if !exists {
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
	return factory(dsn), nil
}

// mergeOptions appends each key=value option whose key the DSN does not already set.
func mergeOptions(dsn, options string) string {
	_, query, _ := strings.Cut(dsn, "?")
	present := map[string]bool{}
	for _, kv := range strings.Split(query, "&") {
		if key, _, ok := strings.Cut(kv, "="); ok {
			present[key] = true
		}
	}

	var missing []string
	for _, kv := range strings.Split(options, "&") {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || present[key] {
			continue
		}
		missing = append(missing, kv)
	}
	if len(missing) == 0 {
		return dsn
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(missing, "&")
}

// configureDB applies per-driver connection settings
func configureDB(db *gorm.DB, driver string) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}

	switch driver {
	case DriverSQLite:
		// a single connection keeps ":memory:" databases coherent and avoids SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
		return db.Exec("PRAGMA foreign_keys = ON").Error
	default:
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}
	return nil
}
