package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	// Type returns the driver name, matching a directory under migration/.
	Type() string

	CreateHistory(ctx context.Context, create *History) (*History, error)
	ListHistory(ctx context.Context, find *FindHistory) ([]*History, error)
	// DeleteHistory returns the number of removed entries.
	DeleteHistory(ctx context.Context, delete *DeleteHistory) (int64, error)
}
