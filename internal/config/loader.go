package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BartekS5/xfer/pkg/models"
)

// LoadJob reads a job file. The format follows the extension: .yaml/.yml
// are YAML, everything else is JSON.
func LoadJob(filePath string) (*models.Job, error) {
	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file '%s': %w", filePath, err)
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filePath)), ".")
	if format != "yaml" && format != "yml" {
		format = "json"
	}

	job, err := models.LoadJob(bytes, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse job file '%s': %w", filePath, err)
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))
	}
	return job, nil
}
