package etl

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/BartekS5/xfer/pkg/models"
)

// Checkpoint is the optional run manifest that lets an interrupted run skip
// the batches it already wrote. A nil *Checkpoint is valid and records
// nothing.
type Checkpoint struct {
	path string

	RunID       string    `json:"run_id"`
	Job         string    `json:"job"`
	SourceCount int       `json:"source_count"`
	BatchSize   int       `json:"batch_size"`
	Fingerprint string    `json:"fingerprint"`
	Completed   []int     `json:"completed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OpenCheckpoint loads the manifest at path. A missing file, or one written
// for different records or a different batch size, yields a fresh manifest;
// the second return value reports whether previous progress is being reused.
func OpenCheckpoint(path, runID, job string, records []models.Record, batchSize int) (*Checkpoint, bool, error) {
	fresh := &Checkpoint{
		path:        path,
		RunID:       runID,
		Job:         job,
		SourceCount: len(records),
		BatchSize:   batchSize,
		Fingerprint: Fingerprint(records),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fresh, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read checkpoint %s: %w", path, err)
	}

	var prev Checkpoint
	if err := json.Unmarshal(data, &prev); err != nil {
		return nil, false, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}
	if prev.Job != job || prev.SourceCount != fresh.SourceCount ||
		prev.BatchSize != batchSize || prev.Fingerprint != fresh.Fingerprint {
		return fresh, false, nil
	}
	prev.path = path
	return &prev, len(prev.Completed) > 0, nil
}

// Fingerprint hashes the ordered records, so a manifest is only reused when
// every batch would carry the same rows.
func Fingerprint(records []models.Record) string {
	h := sha256.New()
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			b = []byte(fmt.Sprintf("%v", r))
		}
		h.Write(b)
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Done reports whether batch index (1-based) was written by an earlier run.
func (c *Checkpoint) Done(index int) bool {
	if c == nil {
		return false
	}
	return slices.Contains(c.Completed, index)
}

// MarkDone records a written batch and saves the manifest.
func (c *Checkpoint) MarkDone(index int) error {
	if c == nil {
		return nil
	}
	if !slices.Contains(c.Completed, index) {
		c.Completed = append(c.Completed, index)
		slices.Sort(c.Completed)
	}
	return c.save()
}

func (c *Checkpoint) save() error {
	c.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, c.path)
}

// Remove deletes the manifest once it is no longer needed.
func (c *Checkpoint) Remove() error {
	if c == nil {
		return nil
	}
	if err := os.Remove(c.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
