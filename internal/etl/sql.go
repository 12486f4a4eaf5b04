package etl

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/BartekS5/xfer/pkg/models"
)

// SQLServerStore reads and writes SQL Server tables through database/sql.
type SQLServerStore struct {
	DB *sql.DB
}

func (s *SQLServerStore) Read(ctx context.Context, q Query) ([]models.Record, error) {
	rows, err := s.DB.QueryContext(ctx, msSelect(q))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []models.Record
	for rows.Next() {
		columns := make([]interface{}, len(cols))
		columnPointers := make([]interface{}, len(cols))
		for i := range columns {
			columnPointers[i] = &columns[i]
		}
		if err := rows.Scan(columnPointers...); err != nil {
			return nil, err
		}

		m := make(models.Record, len(cols))
		for i, colName := range cols {
			if b, ok := columns[i].([]byte); ok {
				m[colName] = string(b)
			} else {
				m[colName] = columns[i]
			}
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// Insert writes the batch as one multi-row INSERT.
func (s *SQLServerStore) Insert(ctx context.Context, table string, rows []models.Record) (int, error) {
	query, args := msInsert(table, columnsOf(rows), rows)
	if query == "" {
		return 0, nil
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Upsert updates each row matched on conflictKey and inserts the rest, all
// inside one transaction so the batch commits or fails as a unit.
func (s *SQLServerStore) Upsert(ctx context.Context, table, conflictKey string, rows []models.Record) (int, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	written := 0
	for i, row := range rows {
		keyVal, ok := row[conflictKey]
		if !ok || keyVal == nil {
			return 0, fmt.Errorf("row %d has no value for conflict key %q", i, conflictKey)
		}

		updated := false
		if query, args := msUpdate(table, conflictKey, row); query != "" {
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				return 0, fmt.Errorf("update row %d: %w", i, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, err
			}
			updated = n > 0
		} else {
			var exists int
			err := tx.QueryRowContext(ctx,
				fmt.Sprintf("SELECT 1 FROM %s WHERE %s = @p1", msIdent(table), msIdent(conflictKey)), keyVal).Scan(&exists)
			if err != nil && err != sql.ErrNoRows {
				return 0, fmt.Errorf("error checking row existence: %w", err)
			}
			updated = err == nil
		}

		if !updated {
			query, args := msInsert(table, columnsOf([]models.Record{row}), []models.Record{row})
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return 0, fmt.Errorf("insert row %d: %w", i, err)
			}
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return written, nil
}

func (s *SQLServerStore) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx, "SELECT COUNT_BIG(*) FROM "+msIdent(table)).Scan(&n)
	return n, err
}

func (s *SQLServerStore) DeleteAll(ctx context.Context, table string) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM "+msIdent(table))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLServerStore) Close(context.Context) error {
	return s.DB.Close()
}

// msIdent brackets each part of a possibly schema-qualified name.
func msIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

func msSelect(q Query) string {
	query := "SELECT * FROM " + msIdent(q.Table)
	if q.Limit <= 0 && q.Offset <= 0 {
		if q.OrderBy != "" {
			query += " ORDER BY " + msIdent(q.OrderBy)
		}
		return query
	}

	// OFFSET/FETCH requires an ORDER BY clause.
	order := "(SELECT NULL)"
	if q.OrderBy != "" {
		order = msIdent(q.OrderBy)
	}
	query += fmt.Sprintf(" ORDER BY %s OFFSET %d ROWS", order, max(q.Offset, 0))
	if q.Limit > 0 {
		query += fmt.Sprintf(" FETCH NEXT %d ROWS ONLY", q.Limit)
	}
	return query
}

func msInsert(table string, cols []string, rows []models.Record) (string, []interface{}) {
	if len(cols) == 0 {
		return "", nil
	}
	colNames := make([]string, len(cols))
	for i, c := range cols {
		colNames[i] = msIdent(c)
	}

	var args []interface{}
	tuples := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, len(cols))
		for j, c := range cols {
			v, ok := row[c]
			if !ok {
				placeholders[j] = "DEFAULT"
				continue
			}
			args = append(args, v)
			placeholders[j] = fmt.Sprintf("@p%d", len(args))
		}
		tuples = append(tuples, "("+strings.Join(placeholders, ", ")+")")
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		msIdent(table), strings.Join(colNames, ", "), strings.Join(tuples, ", "))
	return query, args
}

// msUpdate sets every non-key column of row where the key matches. It
// returns "" when the row has nothing besides the key.
func msUpdate(table, key string, row models.Record) (string, []interface{}) {
	var setClauses []string
	var args []interface{}

	for _, col := range columnsOf([]models.Record{row}) {
		if col == key {
			continue
		}
		args = append(args, row[col])
		setClauses = append(setClauses, fmt.Sprintf("%s = @p%d", msIdent(col), len(args)))
	}
	if len(setClauses) == 0 {
		return "", nil
	}

	args = append(args, row[key])
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = @p%d",
		msIdent(table), strings.Join(setClauses, ", "), msIdent(key), len(args))
	return query, args
}
