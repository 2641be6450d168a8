package storage

import (
	"github.com/pkg/errors"

	"rollcall/pkg/common"
	"rollcall/pkg/config"
)

// Backend is the store of record the index is rebuilt from.
type Backend interface {
	Put(rec common.StudentRecord) error // upsert by enrollment number
	Delete(enrollmentNo string) (bool, error)
	Get(enrollmentNo string) (common.StudentRecord, bool, error)
	LoadAll() ([]common.StudentRecord, error) // ascending enrollment number
	Truncate() error
	Close() error
}

// Open picks the backend named by cfg.Driver.
func Open(cfg config.StorageConfig) (Backend, error) {
	switch cfg.Driver {
	case "sqlite", "":
		return NewSQLiteBackend(cfg.Path)
	case "postgres":
		return NewPostgresBackend(cfg.DSN)
	case "pebble":
		return NewPebbleBackend(cfg.Path)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
