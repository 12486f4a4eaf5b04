package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name                  string
		source, before, after int64
		want                  Outcome
	}{
		{"all written", 73, 0, 73, OutcomeSuccess},
		{"upsert rerun", 73, 73, 73, OutcomeSuccess},
		{"insert rerun", 73, 73, 146, OutcomeSuccess},
		{"more than source", 10, 50, 60, OutcomeSuccess},
		{"empty source", 0, 0, 0, OutcomeSuccess},
		{"one batch missing", 73, 0, 53, OutcomePartial},
		{"grew but short", 73, 10, 40, OutcomePartial},
		{"nothing written", 73, 0, 0, OutcomeFailure},
		{"unchanged", 73, 12, 12, OutcomeFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Verify(tt.source, tt.before, tt.after))
		})
	}
}

func TestOutcomeMessage(t *testing.T) {
	assert.Contains(t, OutcomeSuccess.Message(), "successfully")
	assert.Contains(t, OutcomePartial.Message(), "partial")
	assert.Contains(t, OutcomeFailure.Message(), "failed")
	assert.Contains(t, OutcomeDryRun.Message(), "DRY RUN")
}
