package store

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

func init() {
	Register(Dialect{
		Name:        "postgres",
		DisplayName: "PostgreSQL",
		DriverName:  "pgx",
		DefaultPort: 5432,
		IDStrategy:  IDReturning,
		CreateTable: `CREATE TABLE IF NOT EXISTS analysis_reports (
	id SERIAL PRIMARY KEY,
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
		DSN: postgresDSN,
	})
}

func postgresDSN(cfg RemoteConfig) string {
	q := url.Values{}
	q.Set("sslmode", "disable")
	q.Set("connect_timeout", strconv.Itoa(cfg.timeoutSeconds()))

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.portOr(5432))),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}
