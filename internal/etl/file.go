package etl

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BartekS5/xfer/pkg/models"
	"github.com/BartekS5/xfer/pkg/utils"
)

// FileStore is a read-only source backed by a spreadsheet export: a CSV
// file with a header row, or a JSON array of objects. The table name is
// ignored; the file is the table.
type FileStore struct {
	Path string
}

func (f *FileStore) load() ([]models.Record, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	switch strings.ToLower(filepath.Ext(f.Path)) {
	case ".json":
		var rows []models.Record
		if err := decodeJSON(fh, &rows); err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.Path, err)
		}
		return rows, nil
	case ".csv":
		return readCSV(fh)
	default:
		return nil, fmt.Errorf("%w: cannot read %s (want .csv or .json)", ErrUnsupportedScheme, f.Path)
	}
}

func readCSV(r io.Reader) ([]models.Record, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows []models.Record
	line := 1
	for {
		line++
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row := make(models.Record, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
}

func (f *FileStore) Read(_ context.Context, q Query) ([]models.Record, error) {
	rows, err := f.load()
	if err != nil {
		return nil, err
	}
	if q.OrderBy != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			return utils.ConvertToString(rows[i][q.OrderBy]) < utils.ConvertToString(rows[j][q.OrderBy])
		})
	}
	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			return nil, nil
		}
		rows = rows[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	return rows, nil
}

func (f *FileStore) Count(context.Context, string) (int64, error) {
	rows, err := f.load()
	return int64(len(rows)), err
}

func (f *FileStore) Insert(context.Context, string, []models.Record) (int, error) {
	return 0, ErrReadOnly
}

func (f *FileStore) Upsert(context.Context, string, string, []models.Record) (int, error) {
	return 0, ErrReadOnly
}

func (f *FileStore) DeleteAll(context.Context, string) (int64, error) {
	return 0, ErrReadOnly
}

func (f *FileStore) Close(context.Context) error { return nil }
