package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BartekS5/xfer/pkg/models"
)

func TestPgSelect(t *testing.T) {
	assert.Equal(t, `SELECT * FROM "colaboradores"`, pgSelect(Query{Table: "colaboradores"}))
	assert.Equal(t,
		`SELECT * FROM "public"."colaboradores" ORDER BY "id" LIMIT 100 OFFSET 200`,
		pgSelect(Query{Table: "public.colaboradores", OrderBy: "id", Limit: 100, Offset: 200}))
}

func TestPgInsert(t *testing.T) {
	rows := []models.Record{
		{"email": "a@example.com", "nome": "A"},
		{"email": "b@example.com"},
	}

	query, args := pgInsert("colaboradores", "", rows)
	assert.Equal(t,
		`INSERT INTO "colaboradores" ("email", "nome") VALUES ($1, $2), ($3, DEFAULT)`, query)
	assert.Equal(t, []interface{}{"a@example.com", "A", "b@example.com"}, args)

	query, _ = pgInsert("colaboradores", "email", rows)
	assert.Equal(t,
		`INSERT INTO "colaboradores" ("email", "nome") VALUES ($1, $2), ($3, DEFAULT)`+
			` ON CONFLICT ("email") DO UPDATE SET "nome" = EXCLUDED."nome"`, query)
}

func TestPgInsert_KeyOnly(t *testing.T) {
	query, args := pgInsert("t", "email", []models.Record{{"email": "a"}})
	assert.Equal(t, `INSERT INTO "t" ("email") VALUES ($1) ON CONFLICT ("email") DO NOTHING`, query)
	assert.Len(t, args, 1)
}

func TestPgInsert_NoColumns(t *testing.T) {
	query, args := pgInsert("t", "", []models.Record{{}})
	assert.Empty(t, query)
	assert.Nil(t, args)
}

func TestMsIdent(t *testing.T) {
	assert.Equal(t, "[dbo].[Colaboradores]", msIdent("dbo.Colaboradores"))
	assert.Equal(t, "[odd]]name]", msIdent("odd]name"))
}

func TestMsSelect(t *testing.T) {
	tests := []struct {
		q    Query
		want string
	}{
		{Query{Table: "dbo.t"}, "SELECT * FROM [dbo].[t]"},
		{Query{Table: "t", OrderBy: "id"}, "SELECT * FROM [t] ORDER BY [id]"},
		{Query{Table: "t", OrderBy: "id", Limit: 10, Offset: 20},
			"SELECT * FROM [t] ORDER BY [id] OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY"},
		{Query{Table: "t", Limit: 5},
			"SELECT * FROM [t] ORDER BY (SELECT NULL) OFFSET 0 ROWS FETCH NEXT 5 ROWS ONLY"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, msSelect(tt.q))
	}
}

func TestMsInsert(t *testing.T) {
	rows := []models.Record{{"a": 1, "b": 2}, {"a": 3}}
	query, args := msInsert("t", columnsOf(rows), rows)
	assert.Equal(t, "INSERT INTO [t] ([a], [b]) VALUES (@p1, @p2), (@p3, DEFAULT)", query)
	assert.Equal(t, []interface{}{1, 2, 3}, args)
}

func TestMsUpdate(t *testing.T) {
	query, args := msUpdate("t", "email", models.Record{"email": "x", "nome": "N", "ativo": true})
	assert.Equal(t, "UPDATE [t] SET [ativo] = @p1, [nome] = @p2 WHERE [email] = @p3", query)
	assert.Equal(t, []interface{}{true, "N", "x"}, args)

	query, _ = msUpdate("t", "email", models.Record{"email": "x"})
	assert.Empty(t, query)
}

func TestColumnsOf(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, columnsOf([]models.Record{{"c": 1, "a": 1}, {"b": 1}}))
	assert.Empty(t, columnsOf(nil))
}
