package store

import (
	"context"
	"errors"
	"strings"

	logx "linkscout/pkg/logx"
)

// Store is the persistence API for schedule records.
//
// Get returns ErrNotFound for unknown ids. Delete is idempotent.
type Store interface {
	List(ctx context.Context) ([]Schedule, error)
	Get(ctx context.Context, id string) (Schedule, error)
	Put(ctx context.Context, s Schedule) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown store driver: " + driver)
	}
}
