package models

import "fmt"

// Record is one flat row: column name to value.
type Record map[string]interface{}

// Clone returns a shallow copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Key renders the value of field as a comparable string, "" when absent.
func (r Record) Key(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Presets maps preset names to their field policies.
var Presets = map[string]func() []FieldRule{
	"colaboradores": ProfessionalFields,
}

// ProfessionalFields is the policy used to move the professionals roster
// between environments.
func ProfessionalFields() []FieldRule {
	return []FieldRule{
		{Target: "nome_completo", Type: TypeString},
		{Target: "email", Type: TypeString},
		{Target: "area_atuacao", Type: TypeString, Default: "Não informado"},
		{Target: "skill_principal", Type: TypeString, Default: "Não informado"},
		{Target: "nivel_experiencia", Type: TypeString, Default: "Junior"},
		{Target: "disponivel_compartilhamento", Type: TypeBool, Default: false},
		{Target: "percentual_compartilhamento", Type: TypeInt, Default: 50, NullUnless: "disponivel_compartilhamento"},
	}
}
