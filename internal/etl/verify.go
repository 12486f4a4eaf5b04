package etl

// Outcome is the advisory verdict of the verification step.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
	// OutcomeDryRun is reported instead of a verdict when nothing was written.
	OutcomeDryRun Outcome = "dry-run"
)

// Verify compares the destination row count after a run with the source
// count. before is the destination count taken before any write.
//
// Destination counts at or above the source count are a success, which
// covers upsert re-runs where nothing changes. Below that, an empty or
// untouched destination is a failure and anything else is partial.
func Verify(source, before, after int64) Outcome {
	switch {
	case after >= source:
		return OutcomeSuccess
	case after == 0 || after == before:
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}

func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return "transfer completed successfully"
	case OutcomePartial:
		return "partial transfer: some records may not have been written"
	case OutcomeDryRun:
		return "[DRY RUN] nothing was written"
	default:
		return "transfer failed: no records reached the destination"
	}
}
