package etl

import (
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/BartekS5/xfer/pkg/models"
	"github.com/BartekS5/xfer/pkg/utils"
)

// Transformer projects source records onto the destination shape. It is a
// pure, total function of its input: bad or missing values get the rule's
// default, never an error.
type Transformer struct {
	Rules []models.FieldRule
}

func NewTransformer(rules []models.FieldRule) *Transformer {
	return &Transformer{Rules: rules}
}

// Transform maps one record. Fields without a rule are dropped.
func (t *Transformer) Transform(in models.Record) models.Record {
	out := make(models.Record, len(t.Rules))
	for _, rule := range t.Rules {
		out[rule.Target] = applyRule(rule, in[rule.SourceField()])
	}

	// Gates are evaluated on the projected record, after every rule ran.
	for _, rule := range t.Rules {
		if rule.NullUnless == "" {
			continue
		}
		if open, _ := out[rule.NullUnless].(bool); !open {
			out[rule.Target] = nil
		}
	}
	return out
}

// TransformAll maps every record, preserving order.
func (t *Transformer) TransformAll(in []models.Record) []models.Record {
	out := make([]models.Record, len(in))
	for i, r := range in {
		out[i] = t.Transform(r)
	}
	return out
}

func applyRule(rule models.FieldRule, val interface{}) interface{} {
	if utils.IsBlank(val) {
		return defaultFor(rule)
	}

	switch rule.Type {
	case models.TypeString, "":
		return normalize(rule.Normalize, utils.ConvertToString(val))
	case models.TypeBool:
		b, err := utils.ConvertToBool(val)
		if err != nil {
			return defaultFor(rule)
		}
		return b
	case models.TypeInt:
		n, err := utils.ConvertToInt(val)
		if err != nil {
			return defaultFor(rule)
		}
		return n
	default:
		return val
	}
}

func defaultFor(rule models.FieldRule) interface{} {
	switch rule.Type {
	case models.TypeBool:
		if rule.Default == nil {
			return false
		}
		return cast.ToBool(rule.Default)
	case models.TypeInt:
		if rule.Default == nil {
			return nil
		}
		n, err := cast.ToIntE(rule.Default)
		if err != nil {
			return nil
		}
		return n
	case models.TypeString, "":
		if rule.Default == nil {
			return nil
		}
		return cast.ToString(rule.Default)
	default:
		return rule.Default
	}
}

func normalize(mode, s string) string {
	switch mode {
	case "trim":
		return strings.TrimSpace(s)
	case "lower":
		return cases.Lower(language.Und).String(norm.NFC.String(strings.TrimSpace(s)))
	case "fold":
		return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
	}
	return s
}
