package database

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var memoryDBSeq atomic.Int64

// OpenMemory opens a migrated, private in-memory sqlite database. It backs
// the repository and service tests.
func OpenMemory() (*gorm.DB, error) {
	name := fmt.Sprintf("file:saj_mem_%d?mode=memory&cache=shared", memoryDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(name), &gorm.Config{Logger: logger.Discard, NowFunc: utcNow})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// A single connection keeps the shared in-memory database alive for the test.
	sqlDB.SetMaxOpenConns(1)
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
