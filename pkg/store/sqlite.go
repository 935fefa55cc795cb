package store

import (
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// EmbeddedMemoryDSN is a private in-memory database. It lives as long as the
// store's single connection.
const EmbeddedMemoryDSN = "file::memory:"

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)

	Register(Dialect{
		Name:        "sqlite",
		DisplayName: "SQLite",
		DriverName:  "sqlite",
		Embedded:    true,
		IDStrategy:  IDLastInsertID,
		// analysis_date must be declared TIMESTAMP for the driver to scan it as time.Time
		CreateTable: `CREATE TABLE IF NOT EXISTS analysis_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	file_name VARCHAR(255) NOT NULL,
	file_path VARCHAR(500) NOT NULL,
	line_count INT,
	class_count INT,
	method_count INT,
	variable_count INT,
	analysis_date TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	ai_explanation TEXT,
	ai_debug_suggestions TEXT,
	ai_refactoring_suggestions TEXT
)`,
		DSN: func(RemoteConfig) string { return EmbeddedMemoryDSN },
	})
}
