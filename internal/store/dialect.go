package store

import (
	"fmt"
	"strings"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// dialect holds the driver-specific SQL the store cannot express portably.
type dialect struct {
	driver string
	schema string
	// search is the WHERE clause used by Search; it takes the keyword twice.
	search string
}

var dialects = map[string]dialect{
	DriverSQLite: {
		driver: DriverSQLite,
		schema: `
CREATE TABLE IF NOT EXISTS notes (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	title   TEXT NOT NULL,
	content TEXT NOT NULL
);`,
		// instr is case-sensitive, unlike LIKE.
		search: `instr(title, ?) > 0 OR instr(content, ?) > 0`,
	},
	DriverMySQL: {
		driver: DriverMySQL,
		schema: `
CREATE TABLE IF NOT EXISTS notes (
	id      BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
	title   TEXT NOT NULL,
	content TEXT NOT NULL
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		search: `INSTR(CAST(title AS BINARY), CAST(? AS BINARY)) > 0
			OR INSTR(CAST(content AS BINARY), CAST(? AS BINARY)) > 0`,
	},
}

func dialectFor(driver string) (dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("store: unsupported driver %q", driver)
	}
	return d, nil
}

// dsn appends the connection defaults the driver needs unless the caller
// already supplied a query string.
func (d dialect) dsn(raw string) string {
	if strings.Contains(raw, "?") {
		return raw
	}
	switch d.driver {
	case DriverSQLite:
		return raw + "?_journal_mode=WAL&_busy_timeout=5000"
	case DriverMySQL:
		return raw + "?charset=utf8mb4&collation=utf8mb4_unicode_ci"
	}
	return raw
}
