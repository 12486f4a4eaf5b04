package etl

import (
	"context"
	"errors"

	"github.com/BartekS5/xfer/pkg/models"
)

var (
	// ErrReadOnly is returned by stores that can only be used as a source.
	ErrReadOnly = errors.New("store is read-only")
	// ErrUnsupportedScheme is returned by OpenStore for unknown URLs.
	ErrUnsupportedScheme = errors.New("unsupported endpoint scheme")
)

// Query selects a window of a table. Limit 0 means no limit.
type Query struct {
	Table   string
	OrderBy string
	Limit   int
	Offset  int
}

type Reader interface {
	Read(ctx context.Context, q Query) ([]models.Record, error)
}

// Writer writes one batch. Each call is one request or statement, so a
// failure rejects the batch as a whole wherever the backend allows it.
type Writer interface {
	Insert(ctx context.Context, table string, rows []models.Record) (int, error)
	Upsert(ctx context.Context, table, conflictKey string, rows []models.Record) (int, error)
}

type Counter interface {
	Count(ctx context.Context, table string) (int64, error)
}

type Truncater interface {
	DeleteAll(ctx context.Context, table string) (int64, error)
}

// Store is a table-oriented view of one data endpoint.
type Store interface {
	Reader
	Writer
	Counter
	Truncater
	Close(ctx context.Context) error
}
