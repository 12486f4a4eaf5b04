package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validJob() *Job {
	return &Job{
		Name:        "colaboradores",
		Source:      Endpoint{URL: "https://dev.supabase.co", Table: "colaboradores"},
		Destination: Endpoint{URL: "https://prod.supabase.co", Table: "colaboradores"},
		BatchSize:   20,
		Mode:        ModeUpsert,
		ConflictKey: "email",
		Fields:      ProfessionalFields(),
	}
}

func TestLoadJob_YAML(t *testing.T) {
	job, err := LoadJob([]byte(`
name: roster
source:
  url: sqlserver://sa@localhost:1433?database=rh
  table: dbo.Colaboradores
  order_by: Id
destination:
  url: postgres://app@localhost/portal
  table: public.colaboradores
batch_size: 100
mode: upsert
conflict_key: email
retry:
  max_attempts: 4
  initial_delay: 1s
  max_delay: 1500
fields:
  - source: NomeCompleto
    target: nome_completo
  - target: email
    normalize: lower
  - target: percentual_compartilhamento
    type: int
    default: 50
    null_unless: disponivel_compartilhamento
  - target: disponivel_compartilhamento
    type: bool
`), "yaml")
	require.NoError(t, err)

	assert.Equal(t, "roster", job.Name)
	assert.Equal(t, "dbo.Colaboradores", job.Source.Table)
	assert.Equal(t, "Id", job.Source.OrderBy)
	assert.Equal(t, 100, job.BatchSize)
	assert.Equal(t, ModeUpsert, job.Mode)
	assert.Equal(t, 4, job.Retry.MaxAttempts)
	assert.Equal(t, time.Second, job.Retry.InitialDelay.Std())
	assert.Equal(t, 1500*time.Millisecond, job.Retry.MaxDelay.Std())
	require.Len(t, job.Fields, 4)
	assert.Equal(t, "NomeCompleto", job.Fields[0].SourceField())
	assert.Equal(t, "email", job.Fields[1].SourceField())
	assert.Equal(t, 50, job.Fields[2].Default)
	assert.Equal(t, "disponivel_compartilhamento", job.Fields[2].NullUnless)
	assert.NoError(t, job.Validate())
}

func TestLoadJob_JSON(t *testing.T) {
	job, err := LoadJob([]byte(`{
  "source": {"url": "https://dev.supabase.co", "table": "colaboradores", "pageSize": 500},
  "destination": {"url": "https://prod.supabase.co", "table": "colaboradores"},
  "batchSize": 20,
  "mode": "insert",
  "retry": {"maxAttempts": 2, "initialDelay": "250ms"},
  "preset": "colaboradores"
}`), "json")
	require.NoError(t, err)

	assert.Equal(t, 500, job.Source.PageSize)
	assert.Equal(t, ModeInsert, job.Mode)
	assert.Equal(t, 250*time.Millisecond, job.Retry.InitialDelay.Std())
	assert.Equal(t, "colaboradores", job.Preset)

	_, err = LoadJob([]byte(`{}`), "toml")
	assert.Error(t, err)
	_, err = LoadMapping([]byte(`{"retry": {"initialDelay": true}}`))
	assert.Error(t, err)
	_, err = LoadMapping([]byte(`{"retry": {"initialDelay": "soon"}}`))
	assert.Error(t, err)
}

func TestDuration_MarshalJSON(t *testing.T) {
	b, err := Duration(1500 * time.Millisecond).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1.5s"`, string(b))
}

func TestJob_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Job)
	}{
		{"no source url", func(j *Job) { j.Source.URL = "" }},
		{"no destination url", func(j *Job) { j.Destination.URL = "" }},
		{"no table", func(j *Job) { j.Destination.Table = "" }},
		{"zero batch", func(j *Job) { j.BatchSize = 0 }},
		{"negative page", func(j *Job) { j.Source.PageSize = -1 }},
		{"unknown mode", func(j *Job) { j.Mode = "merge" }},
		{"upsert without key", func(j *Job) { j.ConflictKey = "" }},
		{"key not a field", func(j *Job) { j.ConflictKey = "cpf" }},
		{"no fields", func(j *Job) { j.Fields = nil }},
		{"empty target", func(j *Job) { j.Fields = append(j.Fields, FieldRule{Source: "x"}) }},
		{"duplicate target", func(j *Job) { j.Fields = append(j.Fields, FieldRule{Target: "email"}) }},
		{"unknown type", func(j *Job) { j.Fields[0].Type = "date" }},
		{"unknown normalize", func(j *Job) { j.Fields[0].Normalize = "upper" }},
		{"unknown gate", func(j *Job) { j.Fields[6].NullUnless = "ativo" }},
		{"gate not bool", func(j *Job) { j.Fields[6].NullUnless = "email" }},
		{"raw gate", func(j *Job) { j.Fields[5].Type = TypeRaw }},
		{"negative retries", func(j *Job) { j.Retry.MaxAttempts = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := validJob()
			tt.modify(j)
			assert.ErrorIs(t, j.Validate(), ErrInvalidJob)
		})
	}

	assert.NoError(t, validJob().Validate())

	insert := validJob()
	insert.Mode = ModeInsert
	insert.ConflictKey = ""
	assert.NoError(t, insert.Validate())
}

func TestRecord(t *testing.T) {
	r := Record{"email": "a@example.com", "id": 7, "gone": nil}
	c := r.Clone()
	c["email"] = "changed"

	assert.Equal(t, "a@example.com", r["email"])
	assert.Equal(t, "7", r.Key("id"))
	assert.Equal(t, "", r.Key("gone"))
	assert.Equal(t, "", r.Key("missing"))
}

func TestPresets(t *testing.T) {
	fields := Presets["colaboradores"]()
	require.Len(t, fields, 7)
	assert.Equal(t, "percentual_compartilhamento", fields[6].Target)
	assert.Equal(t, "disponivel_compartilhamento", fields[6].NullUnless)
	assert.Equal(t, "Junior", fields[4].Default)
}
