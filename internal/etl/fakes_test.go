package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/BartekS5/xfer/pkg/models"
)

// memStore is an in-memory Store. Rows get an "id" on write, like a
// serial primary key. Writes whose call number is in failCalls are
// rejected whole.
type memStore struct {
	tables    map[string][]models.Record
	nextID    int
	calls     int
	failCalls map[int]error
	readErr   error
	countErr  error
	writes    int
}

func newMemStore() *memStore {
	return &memStore{tables: make(map[string][]models.Record), failCalls: make(map[int]error)}
}

func (m *memStore) seed(table string, rows []models.Record) {
	for _, r := range rows {
		m.nextID++
		c := r.Clone()
		c["id"] = m.nextID
		m.tables[table] = append(m.tables[table], c)
	}
}

func (m *memStore) Read(_ context.Context, q Query) ([]models.Record, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	rows := m.tables[q.Table]
	if q.Offset >= len(rows) {
		return nil, nil
	}
	rows = rows[q.Offset:]
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}
	out := make([]models.Record, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (m *memStore) fail() error {
	m.calls++
	if err, ok := m.failCalls[m.calls]; ok {
		return err
	}
	return nil
}

func (m *memStore) Insert(_ context.Context, table string, rows []models.Record) (int, error) {
	if err := m.fail(); err != nil {
		return 0, err
	}
	m.writes++
	m.seed(table, rows)
	return len(rows), nil
}

func (m *memStore) Upsert(_ context.Context, table, key string, rows []models.Record) (int, error) {
	if err := m.fail(); err != nil {
		return 0, err
	}
	seen := make(map[string]bool)
	for _, r := range rows {
		k := r.Key(key)
		if k == "" {
			return 0, fmt.Errorf("null value in column %q", key)
		}
		if seen[k] {
			return 0, errors.New("ON CONFLICT DO UPDATE command cannot affect row a second time")
		}
		seen[k] = true
	}

	m.writes++
	for _, r := range rows {
		updated := false
		for i, existing := range m.tables[table] {
			if existing.Key(key) == r.Key(key) {
				c := r.Clone()
				c["id"] = existing["id"]
				m.tables[table][i] = c
				updated = true
				break
			}
		}
		if !updated {
			m.seed(table, []models.Record{r})
		}
	}
	return len(rows), nil
}

func (m *memStore) Count(_ context.Context, table string) (int64, error) {
	if m.countErr != nil {
		return 0, m.countErr
	}
	return int64(len(m.tables[table])), nil
}

func (m *memStore) DeleteAll(_ context.Context, table string) (int64, error) {
	n := len(m.tables[table])
	delete(m.tables, table)
	return int64(n), nil
}

func (m *memStore) Close(context.Context) error { return nil }

func professionals(n int) []models.Record {
	rows := make([]models.Record, n)
	for i := range rows {
		rows[i] = models.Record{
			"id":                          i + 1,
			"nome_completo":               fmt.Sprintf("Pessoa %d", i+1),
			"email":                       fmt.Sprintf("pessoa%d@example.com", i+1),
			"area_atuacao":                "Backend",
			"skill_principal":             "Go",
			"nivel_experiencia":           "Pleno",
			"disponivel_compartilhamento": i%2 == 0,
			"percentual_compartilhamento": "30",
			"outras_tecnologias":          "Docker",
			"created_at":                  "2024-01-01T00:00:00Z",
		}
	}
	return rows
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
