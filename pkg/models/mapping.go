package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidJob is wrapped by every job validation failure.
var ErrInvalidJob = errors.New("invalid job")

// WriteMode selects how batches are written to the destination.
type WriteMode string

const (
	// ModeInsert fails a batch on any conflict and duplicates rows on re-run.
	ModeInsert WriteMode = "insert"
	// ModeUpsert merges rows on the job's conflict key.
	ModeUpsert WriteMode = "upsert"
)

// Field types understood by the transformer.
const (
	TypeString = "string"
	TypeBool   = "bool"
	TypeInt    = "int"
	TypeRaw    = "raw"
)

// Job represents the root of a job file. It replaces one hard-coded
// migration script: every axis that used to vary per script lives here.
type Job struct {
	Name        string      `json:"name" yaml:"name"`
	Source      Endpoint    `json:"source" yaml:"source"`
	Destination Endpoint    `json:"destination" yaml:"destination"`
	BatchSize   int         `json:"batchSize" yaml:"batch_size"`
	Mode        WriteMode   `json:"mode" yaml:"mode"`
	ConflictKey string      `json:"conflictKey,omitempty" yaml:"conflict_key,omitempty"`
	Truncate    bool        `json:"truncate,omitempty" yaml:"truncate,omitempty"`
	DryRun      bool        `json:"dryRun,omitempty" yaml:"dry_run,omitempty"`
	Checkpoint  string      `json:"checkpoint,omitempty" yaml:"checkpoint,omitempty"`
	Retry       RetryPolicy `json:"retry" yaml:"retry"`
	Preset      string      `json:"preset,omitempty" yaml:"preset,omitempty"`
	Fields      []FieldRule `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// Endpoint identifies one table on one data store.
type Endpoint struct {
	URL        string `json:"url" yaml:"url"`
	Credential string `json:"credential,omitempty" yaml:"credential,omitempty"`
	Table      string `json:"table" yaml:"table"`
	OrderBy    string `json:"orderBy,omitempty" yaml:"order_by,omitempty"`
	PageSize   int    `json:"pageSize,omitempty" yaml:"page_size,omitempty"`
}

// FieldRule maps one source field onto one destination field.
type FieldRule struct {
	Source     string      `json:"source,omitempty" yaml:"source,omitempty"`
	Target     string      `json:"target" yaml:"target"`
	Type       string      `json:"type,omitempty" yaml:"type,omitempty"`
	Default    interface{} `json:"default,omitempty" yaml:"default,omitempty"`
	NullUnless string      `json:"nullUnless,omitempty" yaml:"null_unless,omitempty"`
	Normalize  string      `json:"normalize,omitempty" yaml:"normalize,omitempty"`
}

// SourceField returns the source column, which defaults to the target name.
func (f FieldRule) SourceField() string {
	if f.Source == "" {
		return f.Target
	}
	return f.Source
}

// RetryPolicy configures per-batch retries. MaxAttempts <= 1 disables them.
type RetryPolicy struct {
	MaxAttempts  int      `json:"maxAttempts,omitempty" yaml:"max_attempts,omitempty"`
	InitialDelay Duration `json:"initialDelay,omitempty" yaml:"initial_delay,omitempty"`
	MaxDelay     Duration `json:"maxDelay,omitempty" yaml:"max_delay,omitempty"`
}

// Duration is a time.Duration that reads "500ms" style strings from job files.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v interface{}) error {
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val) * time.Millisecond)
	case int:
		*d = Duration(time.Duration(val) * time.Millisecond)
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}

// LoadMapping parses a JSON job. Kept for job files written in the original
// mapping.json format.
func LoadMapping(data []byte) (*Job, error) {
	var j Job
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, err
	}
	return &j, nil
}

// LoadJob parses a job in the given format ("json" or "yaml").
func LoadJob(data []byte, format string) (*Job, error) {
	switch format {
	case "yaml", "yml":
		var j Job
		if err := yaml.Unmarshal(data, &j); err != nil {
			return nil, err
		}
		return &j, nil
	case "json", "":
		return LoadMapping(data)
	default:
		return nil, fmt.Errorf("unknown job format %q", format)
	}
}

// Validate checks everything that can be checked without connecting.
func (j *Job) Validate() error {
	if j.Source.URL == "" {
		return fmt.Errorf("%w: source url is required", ErrInvalidJob)
	}
	if j.Destination.URL == "" {
		return fmt.Errorf("%w: destination url is required", ErrInvalidJob)
	}
	if j.Source.Table == "" || j.Destination.Table == "" {
		return fmt.Errorf("%w: source and destination tables are required", ErrInvalidJob)
	}
	if j.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive, got %d", ErrInvalidJob, j.BatchSize)
	}
	if j.Source.PageSize < 0 {
		return fmt.Errorf("%w: page size must not be negative", ErrInvalidJob)
	}
	switch j.Mode {
	case ModeInsert:
	case ModeUpsert:
		if j.ConflictKey == "" {
			return fmt.Errorf("%w: upsert mode needs a conflict key", ErrInvalidJob)
		}
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidJob, j.Mode)
	}
	if len(j.Fields) == 0 {
		return fmt.Errorf("%w: no field rules (set fields or a preset)", ErrInvalidJob)
	}

	targets := make(map[string]bool, len(j.Fields))
	types := make(map[string]string, len(j.Fields))
	for i, f := range j.Fields {
		if f.Target == "" {
			return fmt.Errorf("%w: field %d has no target", ErrInvalidJob, i)
		}
		if targets[f.Target] {
			return fmt.Errorf("%w: duplicate target %q", ErrInvalidJob, f.Target)
		}
		targets[f.Target] = true
		types[f.Target] = f.Type
		switch f.Type {
		case "", TypeString, TypeBool, TypeInt, TypeRaw:
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidJob, f.Target, f.Type)
		}
		switch f.Normalize {
		case "", "trim", "lower", "fold":
		default:
			return fmt.Errorf("%w: field %q has unknown normalize %q", ErrInvalidJob, f.Target, f.Normalize)
		}
	}
	for _, f := range j.Fields {
		if f.NullUnless == "" {
			continue
		}
		if !targets[f.NullUnless] {
			return fmt.Errorf("%w: field %q gated on unknown field %q", ErrInvalidJob, f.Target, f.NullUnless)
		}
		if gate := types[f.NullUnless]; gate != TypeBool {
			return fmt.Errorf("%w: field %q gated on %q, which must have type bool", ErrInvalidJob, f.Target, f.NullUnless)
		}
	}
	if j.Mode == ModeUpsert && !targets[j.ConflictKey] {
		return fmt.Errorf("%w: conflict key %q is not a destination field", ErrInvalidJob, j.ConflictKey)
	}
	if j.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: retry attempts must not be negative", ErrInvalidJob)
	}
	return nil
}
