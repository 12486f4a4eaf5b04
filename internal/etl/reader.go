package etl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BartekS5/xfer/pkg/models"
)

// SourceReader fetches the full row set of one table. With a page size it
// walks the table with limit/offset pages ordered by OrderBy; without one it
// issues a single unbounded read.
type SourceReader struct {
	reader   Reader
	table    string
	orderBy  string
	pageSize int
	log      *slog.Logger
}

func NewSourceReader(r Reader, ep models.Endpoint, log *slog.Logger) *SourceReader {
	if log == nil {
		log = slog.Default()
	}
	return &SourceReader{
		reader:   r,
		table:    ep.Table,
		orderBy:  ep.OrderBy,
		pageSize: ep.PageSize,
		log:      log,
	}
}

// ReadAll returns every row. Any error aborts the read; there is no partial
// result.
func (s *SourceReader) ReadAll(ctx context.Context) ([]models.Record, error) {
	if s.pageSize <= 0 {
		rows, err := s.reader.Read(ctx, Query{Table: s.table, OrderBy: s.orderBy})
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", s.table, err)
		}
		return rows, nil
	}

	if s.orderBy == "" {
		s.log.Warn("paging without order_by; page boundaries depend on the store's default order",
			slog.String("table", s.table))
	}

	var all []models.Record
	for offset := 0; ; offset += s.pageSize {
		page, err := s.reader.Read(ctx, Query{
			Table:   s.table,
			OrderBy: s.orderBy,
			Limit:   s.pageSize,
			Offset:  offset,
		})
		if err != nil {
			return nil, fmt.Errorf("read %s at offset %d: %w", s.table, offset, err)
		}
		all = append(all, page...)
		s.log.Debug("source page read", slog.Int("offset", offset), slog.Int("rows", len(page)))
		if len(page) < s.pageSize {
			return all, nil
		}
	}
}
