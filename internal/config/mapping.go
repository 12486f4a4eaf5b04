package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BartekS5/xfer/pkg/models"
)

// Defaults applied to jobs that leave a setting empty.
const (
	DefaultBatchSize = 20
	DefaultPreset    = "colaboradores"
)

// Finalize fills defaults and resolves the field policy, then validates.
// Explicit field rules win over a preset.
func Finalize(job *models.Job) error {
	if job.BatchSize == 0 {
		job.BatchSize = DefaultBatchSize
	}
	if job.Mode == "" {
		if job.ConflictKey != "" {
			job.Mode = models.ModeUpsert
		} else {
			job.Mode = models.ModeInsert
		}
	}
	if job.Destination.Table == "" {
		job.Destination.Table = job.Source.Table
	}
	if job.Name == "" {
		job.Name = job.Source.Table + "-to-" + job.Destination.Table
	}

	if len(job.Fields) == 0 {
		name := job.Preset
		if name == "" {
			name = DefaultPreset
		}
		preset, ok := models.Presets[name]
		if !ok {
			return fmt.Errorf("%w: unknown preset %q (known: %s)", models.ErrInvalidJob, name, strings.Join(PresetNames(), ", "))
		}
		job.Preset = name
		job.Fields = preset()
	}
	return job.Validate()
}

// PresetNames lists the built-in field policies.
func PresetNames() []string {
	names := make([]string, 0, len(models.Presets))
	for n := range models.Presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
