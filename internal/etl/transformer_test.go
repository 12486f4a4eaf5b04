package etl

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/xfer/pkg/models"
)

func sharingRules() []models.FieldRule {
	return []models.FieldRule{
		{Target: "full_name", Type: models.TypeString},
		{Target: "email", Type: models.TypeString, Normalize: "lower"},
		{Target: "seniority_level", Type: models.TypeString, Default: "Junior"},
		{Target: "category", Type: models.TypeString, Default: "Not informed"},
		{Target: "available_for_sharing", Type: models.TypeBool, Default: false},
		{Target: "sharing_percentage", Type: models.TypeInt, Default: 50, NullUnless: "available_for_sharing"},
	}
}

func TestTransform_UnavailableForcesNullPercentage(t *testing.T) {
	tr := NewTransformer(sharingRules())

	out := tr.Transform(models.Record{
		"email":                 "a@example.com",
		"available_for_sharing": false,
		"sharing_percentage":    "80",
	})

	v, ok := out["sharing_percentage"]
	require.True(t, ok)
	assert.Nil(t, v)
}

func TestTransform_MissingSeniorityDefaultsToJunior(t *testing.T) {
	out := NewTransformer(sharingRules()).Transform(models.Record{"email": "a@example.com"})
	assert.Equal(t, "Junior", out["seniority_level"])
	assert.Equal(t, "Not informed", out["category"])
	assert.Equal(t, false, out["available_for_sharing"])
	assert.Nil(t, out["sharing_percentage"])
}

func TestTransform_Percentage(t *testing.T) {
	tr := NewTransformer(sharingRules())

	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"numeric string", "80", 80},
		{"leading integer", "75%", 75},
		{"float string", "33.9", 33},
		{"number", 40, 40},
		{"float", 60.0, 60},
		{"unparseable", "metade", 50},
		{"blank", "  ", 50},
		{"absent", nil, 50},
		{"bool", true, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := models.Record{"available_for_sharing": true}
			if tt.in != nil {
				in["sharing_percentage"] = tt.in
			}
			assert.Equal(t, tt.want, tr.Transform(in)["sharing_percentage"])
		})
	}
}

func TestTransform_AvailabilityWords(t *testing.T) {
	tr := NewTransformer(sharingRules())
	for in, want := range map[interface{}]bool{
		"sim": true, "Sim": true, "yes": true, "true": true, 1: true, true: true,
		"não": false, "no": false, "false": false, 0: false, false: false, "talvez": false,
	} {
		out := tr.Transform(models.Record{"available_for_sharing": in})
		assert.Equal(t, want, out["available_for_sharing"], "input %v", in)
	}
}

func TestTransform_DropsUnmappedFields(t *testing.T) {
	out := NewTransformer(sharingRules()).Transform(models.Record{
		"id":         7,
		"created_at": "2024-01-01",
		"email":      "A@Example.COM",
	})

	assert.NotContains(t, out, "id")
	assert.NotContains(t, out, "created_at")
	assert.Len(t, out, len(sharingRules()))
	assert.Equal(t, "a@example.com", out["email"])
}

func TestTransform_RenamesSourceFields(t *testing.T) {
	tr := NewTransformer([]models.FieldRule{
		{Source: "nome_completo", Target: "full_name", Type: models.TypeString},
		{Source: "nivel_experiencia", Target: "seniority_level", Type: models.TypeString, Default: "Junior"},
	})
	out := tr.Transform(models.Record{"nome_completo": "Ana", "nivel_experiencia": "Senior"})
	assert.Equal(t, models.Record{"full_name": "Ana", "seniority_level": "Senior"}, out)
}

func TestTransform_IsIdempotent(t *testing.T) {
	inputs := append(professionals(6),
		models.Record{},
		models.Record{"percentual_compartilhamento": "abc", "disponivel_compartilhamento": "sim"},
		models.Record{"percentual_compartilhamento": 0, "disponivel_compartilhamento": "não"},
	)

	for _, rules := range [][]models.FieldRule{models.ProfessionalFields(), sharingRules()} {
		tr := NewTransformer(rules)
		for _, in := range inputs {
			once := tr.Transform(in)
			assert.Empty(t, cmp.Diff(once, tr.Transform(in)), "transform is not deterministic")
			assert.Empty(t, cmp.Diff(once, tr.Transform(once)), "transform is not idempotent")
		}
	}
}

func TestTransform_DoesNotMutateInput(t *testing.T) {
	in := models.Record{"email": " X@Y.com ", "extra": 1}
	snapshot := in.Clone()
	NewTransformer(sharingRules()).Transform(in)
	assert.Equal(t, snapshot, in)
}

func TestProfessionalFields(t *testing.T) {
	out := NewTransformer(models.ProfessionalFields()).Transform(models.Record{
		"nome_completo":               "Maria",
		"email":                       "maria@example.com",
		"disponivel_compartilhamento": true,
		"percentual_compartilhamento": "",
		"outras_skills":               "Rust",
	})

	assert.Equal(t, models.Record{
		"nome_completo":               "Maria",
		"email":                       "maria@example.com",
		"area_atuacao":                "Não informado",
		"skill_principal":             "Não informado",
		"nivel_experiencia":           "Junior",
		"disponivel_compartilhamento": true,
		"percentual_compartilhamento": 50,
	}, out)
}
