package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Database wraps the main wiki database connection
type Database struct {
	mainDB *sql.DB

	// Serializes token writes against reads
	MainMutex sync.RWMutex

	dbconfig *DBConfig

	StopChan chan struct{} // closed on Shutdown
	stopOnce sync.Once
}

// DBConfig represents database configuration
type DBConfig struct {
	// Path of the main database file
	MainDB string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Performance settings
	WALMode   bool   // Write-Ahead Logging
	SyncMode  string // OFF, NORMAL, FULL
	CacheSize int    // KB
	TempStore string // MEMORY, FILE

	// Identification written to system_status
	AppVersion string

	// TrackStatus marks this process as the server in system_status.
	// Tools that open the database next to a running server leave it off.
	TrackStatus bool
}

// DefaultDBConfig returns default database configuration
func DefaultDBConfig() (dbconfig *DBConfig) {
	return &DBConfig{
		MainDB:          "./data/pugwiki.sq3",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 0, // Unlimited for SQLite - connections don't need to be recycled
		WALMode:         true,
		SyncMode:        "NORMAL",
		CacheSize:       -16384, // -16384 == 1024 KB * 16384 = 16MB cache
		TempStore:       "MEMORY",
	}
}

// OpenDatabase opens the main database, applies pragmas and runs migrations
func OpenDatabase(ctx context.Context, dbconfig *DBConfig) (*Database, error) {
	if dbconfig == nil {
		dbconfig = DefaultDBConfig()
	}

	db := &Database{
		dbconfig: dbconfig,
		StopChan: make(chan struct{}),
	}

	if err := db.initMainDB(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize main database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.mainDB.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	if dbconfig.TrackStatus {
		if err := db.markStarted(ctx); err != nil {
			log.Printf("[DATABASE]: Warning: %v", err)
		}
	}

	log.Printf("[DATABASE] Opened %s", dbconfig.MainDB)
	return db, nil
}

// initMainDB initializes the main database connection
func (db *Database) initMainDB(ctx context.Context) error {
	dbPath := db.dbconfig.MainDB
	log.Printf("Initializing main database at: %s", dbPath)

	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	mainDB, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return fmt.Errorf("failed to open main database: %w", err)
	}

	mainDB.SetMaxOpenConns(db.dbconfig.MaxOpenConns)
	mainDB.SetMaxIdleConns(db.dbconfig.MaxIdleConns)
	mainDB.SetConnMaxLifetime(db.dbconfig.ConnMaxLifetime)

	if err := mainDB.PingContext(ctx); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to ping main database: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to ping main database: %w", err)
	}

	if err := db.applySQLitePragmas(ctx, mainDB); err != nil {
		if cerr := mainDB.Close(); cerr != nil {
			return fmt.Errorf("failed to apply SQLite pragmas: %w; also failed to close mainDB: %v", err, cerr)
		}
		return fmt.Errorf("failed to apply SQLite pragmas: %w", err)
	}

	db.mainDB = mainDB
	return nil
}

// applySQLitePragmas applies performance and configuration pragmas to SQLite connection
func (db *Database) applySQLitePragmas(ctx context.Context, conn *sql.DB) error {
	pragmas := []string{
		fmt.Sprintf("PRAGMA cache_size = %d", db.dbconfig.CacheSize),
		fmt.Sprintf("PRAGMA synchronous = %s", db.dbconfig.SyncMode),
		fmt.Sprintf("PRAGMA temp_store = %s", db.dbconfig.TempStore),
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 30000", // 30 seconds
	}

	if db.dbconfig.WALMode {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
		pragmas = append(pragmas, "PRAGMA wal_autocheckpoint = 1000")
	}

	for _, pragma := range pragmas {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute pragma '%s': %w", pragma, err)
		}
	}

	return nil
}

// GetMainDB returns the main database connection
func (db *Database) GetMainDB() *sql.DB {
	return db.mainDB
}

// Shutdown stops the heartbeat, marks a clean shutdown and closes the database
func (db *Database) Shutdown() error {
	db.stopOnce.Do(func() { close(db.StopChan) })

	if db.dbconfig.TrackStatus {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := db.markStopped(ctx, StateClean); err != nil {
			log.Printf("[DATABASE]: Warning: %v", err)
		}
	}

	if db.mainDB != nil {
		if err := db.mainDB.Close(); err != nil {
			return fmt.Errorf("failed to close main database: %w", err)
		}
	}
	log.Printf("[DATABASE] Main database closed")
	return nil
}
