package etl

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/BartekS5/xfer/pkg/models"
)

// PostgresStore talks to a Postgres database directly, e.g. the database
// behind a hosted Supabase project.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func (s *PostgresStore) Read(ctx context.Context, q Query) ([]models.Record, error) {
	rows, err := s.Pool.Query(ctx, pgSelect(q))
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]models.Record, len(maps))
	for i, m := range maps {
		out[i] = models.Record(m)
	}
	return out, nil
}

func (s *PostgresStore) Insert(ctx context.Context, table string, rows []models.Record) (int, error) {
	query, args := pgInsert(table, "", rows)
	return s.exec(ctx, query, args)
}

func (s *PostgresStore) Upsert(ctx context.Context, table, conflictKey string, rows []models.Record) (int, error) {
	query, args := pgInsert(table, conflictKey, rows)
	return s.exec(ctx, query, args)
}

func (s *PostgresStore) exec(ctx context.Context, query string, args []interface{}) (int, error) {
	if query == "" {
		return 0, nil
	}
	tag, err := s.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	err := s.Pool.QueryRow(ctx, "SELECT count(*) FROM "+pgIdent(table)).Scan(&n)
	return n, err
}

func (s *PostgresStore) DeleteAll(ctx context.Context, table string) (int64, error) {
	tag, err := s.Pool.Exec(ctx, "DELETE FROM "+pgIdent(table))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) Close(context.Context) error {
	s.Pool.Close()
	return nil
}

// pgIdent quotes a possibly schema-qualified name.
func pgIdent(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func pgSelect(q Query) string {
	var b strings.Builder
	b.WriteString("SELECT * FROM ")
	b.WriteString(pgIdent(q.Table))
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(pgIdent(q.OrderBy))
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String()
}

// pgInsert builds one multi-row INSERT for the batch. Columns are the union
// of the rows' keys; a row missing a column gets DEFAULT. With a conflict key
// the statement merges on it.
func pgInsert(table, conflictKey string, rows []models.Record) (string, []interface{}) {
	cols := columnsOf(rows)
	if len(cols) == 0 {
		return "", nil
	}

	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}

	var b strings.Builder
	args := make([]interface{}, 0, len(rows)*len(cols))
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", pgIdent(table), strings.Join(quoted, ", "))

	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, c := range cols {
			if j > 0 {
				b.WriteString(", ")
			}
			v, ok := row[c]
			if !ok {
				b.WriteString("DEFAULT")
				continue
			}
			args = append(args, v)
			fmt.Fprintf(&b, "$%d", len(args))
		}
		b.WriteByte(')')
	}

	if conflictKey != "" {
		var sets []string
		for i, c := range cols {
			if c == conflictKey {
				continue
			}
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", quoted[i], quoted[i]))
		}
		fmt.Fprintf(&b, " ON CONFLICT (%s)", pgx.Identifier{conflictKey}.Sanitize())
		if len(sets) == 0 {
			b.WriteString(" DO NOTHING")
		} else {
			b.WriteString(" DO UPDATE SET ")
			b.WriteString(strings.Join(sets, ", "))
		}
	}
	return b.String(), args
}

// columnsOf returns the sorted union of the rows' keys.
func columnsOf(rows []models.Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}
