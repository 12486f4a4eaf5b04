package etl

import (
	"fmt"

	"github.com/BartekS5/xfer/pkg/models"
)

// Validator inspects transformed records before they are written and
// reports rows the destination is likely to reject. It never drops rows.
type Validator struct {
	Mode        models.WriteMode
	ConflictKey string
	BatchSize   int
}

// Issue points at one suspicious record. Index is 0-based in the
// transformed sequence; Batch is the 1-based batch it lands in.
type Issue struct {
	Index   int
	Batch   int
	Message string
}

// Check flags records without a conflict key value and keys repeated
// across the run. A key repeated inside one batch makes Postgres reject
// the whole upsert, so those are called out separately.
func (v *Validator) Check(records []models.Record) []Issue {
	if v.Mode != models.ModeUpsert || v.ConflictKey == "" {
		return nil
	}

	var issues []Issue
	firstSeen := make(map[string]int)
	for i, r := range records {
		batch := 1
		if v.BatchSize > 0 {
			batch = i/v.BatchSize + 1
		}
		key := r.Key(v.ConflictKey)
		if key == "" {
			issues = append(issues, Issue{Index: i, Batch: batch,
				Message: fmt.Sprintf("missing value for conflict key %q", v.ConflictKey)})
			continue
		}
		prev, dup := firstSeen[key]
		if !dup {
			firstSeen[key] = i
			continue
		}
		msg := fmt.Sprintf("%s %q repeats record %d; the later row wins", v.ConflictKey, key, prev)
		if v.BatchSize > 0 && prev/v.BatchSize == i/v.BatchSize {
			msg = fmt.Sprintf("%s %q appears twice in batch %d; the batch will likely be rejected", v.ConflictKey, key, batch)
		}
		issues = append(issues, Issue{Index: i, Batch: batch, Message: msg})
	}
	return issues
}
