package store

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
)

func init() {
	Register(Dialect{
		Name:        "sqlserver",
		DisplayName: "Microsoft SQL Server",
		DriverName:  "sqlserver",
		DefaultPort: 1433,
		IDStrategy:  IDOutputInserted,
		// SQL Server has no CREATE TABLE IF NOT EXISTS
		CreateTable: `IF OBJECT_ID(N'analysis_reports', N'U') IS NULL
CREATE TABLE analysis_reports (
	id INT IDENTITY(1,1) PRIMARY KEY,
	file_name NVARCHAR(255) NOT NULL,
	file_path NVARCHAR(500) NOT NULL,
	line_count INT,
	class_count INT,
	method_count INT,
	variable_count INT,
	analysis_date DATETIME2 DEFAULT CURRENT_TIMESTAMP,
	ai_explanation NVARCHAR(MAX),
	ai_debug_suggestions NVARCHAR(MAX),
	ai_refactoring_suggestions NVARCHAR(MAX)
)`,
		DSN: sqlServerDSN,
	})
}

func sqlServerDSN(cfg RemoteConfig) string {
	query := url.Values{}
	query.Add("database", cfg.Database)
	query.Add("encrypt", "disable")
	query.Add("connection timeout", strconv.Itoa(cfg.timeoutSeconds()))

	u := url.URL{
		Scheme:   "sqlserver",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.portOr(1433))),
		RawQuery: query.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}
