package store

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// IDStrategy says how a dialect hands back the generated id of an insert.
type IDStrategy int

const (
	// IDLastInsertID reads sql.Result.LastInsertId.
	IDLastInsertID IDStrategy = iota
	// IDReturning appends RETURNING id to the statement.
	IDReturning
	// IDOutputInserted places OUTPUT INSERTED.id before VALUES.
	IDOutputInserted
)

// RemoteConfig holds the connection parameters for a network SQL service.
type RemoteConfig struct {
	Driver         string // mysql, postgres or sqlserver
	Host           string
	Port           int // 0 means the dialect's default port
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
}

// Dialect describes one SQL backend the store can talk to.
type Dialect struct {
	Name        string // Registry key: "mysql", "postgres", "sqlserver", "sqlite"
	DisplayName string // "MySQL", "PostgreSQL"
	DriverName  string // database/sql driver name
	DefaultPort int
	Embedded    bool // Runs in-process; not eligible as a remote backend
	IDStrategy  IDStrategy
	CreateTable string // Idempotent DDL for analysis_reports

	// DSN builds the data source name. Embedded dialects ignore cfg.
	DSN func(cfg RemoteConfig) string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Dialect)
)

// aliases maps alternate spellings seen in connection URLs.
var aliases = map[string]string{
	"postgresql": "postgres",
	"pgx":        "postgres",
	"mssql":      "sqlserver",
	"mariadb":    "mysql",
	"sqlite3":    "sqlite",
}

// Register is called by each dialect's init() function.
func Register(d Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Lookup returns the dialect registered under name or one of its aliases.
func Lookup(name string) (Dialect, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := aliases[name]; ok {
		name = alias
	}

	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// RegisteredDialects returns every registered dialect sorted by name.
func RegisteredDialects() []Dialect {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]Dialect, 0, len(registry))
	for _, d := range registry {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (c RemoteConfig) portOr(def int) int {
	if c.Port > 0 {
		return c.Port
	}
	return def
}

func (c RemoteConfig) timeoutSeconds() int {
	secs := int(c.connectTimeout() / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

func (c RemoteConfig) connectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 || c.ConnectTimeout > MaxConnectTimeout {
		return MaxConnectTimeout
	}
	return c.ConnectTimeout
}
