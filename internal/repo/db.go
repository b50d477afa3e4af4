package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens the task store at path (SQLITE_PATH: a file path, a
// "file:" URI or ":memory:"), creating the parent directory of a file path
// and migrating the tasks table.
//
// The pool holds a single connection; Update transactions serialize on it.
func NewSQLiteDB(path string) (*gorm.DB, error) {
	if path == "" {
		path = "tasks.db"
	}
	if err := mkdirForFile(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite open %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&taskRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite migrate tasks: %w", err)
	}
	return db, nil
}

func mkdirForFile(path string) error {
	if strings.Contains(path, ":memory:") || strings.Contains(path, "mode=memory") {
		return nil
	}
	file, _, _ := strings.Cut(strings.TrimPrefix(path, "file:"), "?")
	dir := filepath.Dir(file)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
