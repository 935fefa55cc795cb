package store

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

func init() {
	Register(Dialect{
		Name:        "mysql",
		DisplayName: "MySQL",
		DriverName:  "mysql",
		DefaultPort: 3306,
		IDStrategy:  IDLastInsertID,
		CreateTable: `CREATE TABLE IF NOT EXISTS analysis_reports (
	id INT AUTO_INCREMENT PRIMARY KEY,
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
		DSN: mysqlDSN,
	})
}

// mysqlDSN builds a go-sql-driver DSN with TLS off for the handshake and
// timestamps parsed into time.Time.
func mysqlDSN(cfg RemoteConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.portOr(3306)))
	mc.DBName = cfg.Database
	mc.TLSConfig = "false"
	mc.Timeout = cfg.connectTimeout()
	mc.ParseTime = true
	return mc.FormatDSN()
}
