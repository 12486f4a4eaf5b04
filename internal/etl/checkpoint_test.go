package etl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BartekS5/xfer/pkg/models"
)

func TestCheckpoint_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	rows := professionals(73)

	cp, resumed, err := OpenCheckpoint(path, "run-1", "colaboradores", rows, 20)
	require.NoError(t, err)
	assert.False(t, resumed)
	assert.NoFileExists(t, path)

	require.NoError(t, cp.MarkDone(2))
	require.NoError(t, cp.MarkDone(1))
	require.NoError(t, cp.MarkDone(2))
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".tmp")

	again, resumed, err := OpenCheckpoint(path, "run-2", "colaboradores", professionals(73), 20)
	require.NoError(t, err)
	assert.True(t, resumed)
	assert.Equal(t, "run-1", again.RunID)
	assert.Equal(t, []int{1, 2}, again.Completed)
	assert.True(t, again.Done(1))
	assert.False(t, again.Done(3))

	require.NoError(t, again.Remove())
	assert.NoFileExists(t, path)
	require.NoError(t, again.Remove())
}

func TestCheckpoint_MismatchStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	cp, _, err := OpenCheckpoint(path, "run-1", "colaboradores", professionals(73), 20)
	require.NoError(t, err)
	require.NoError(t, cp.MarkDone(1))

	// same row count, different row in batch 1
	edited := professionals(73)
	edited[4]["email"] = "nova@example.com"

	for _, tc := range []struct {
		name  string
		job   string
		rows  []models.Record
		batch int
	}{
		{"other job", "other", professionals(73), 20},
		{"more rows", "colaboradores", professionals(74), 20},
		{"other batch size", "colaboradores", professionals(73), 10},
		{"changed rows", "colaboradores", edited, 20},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fresh, resumed, err := OpenCheckpoint(path, "run-2", tc.job, tc.rows, tc.batch)
			require.NoError(t, err)
			assert.False(t, resumed)
			assert.Equal(t, "run-2", fresh.RunID)
			assert.Empty(t, fresh.Completed)
		})
	}
}

func TestFingerprint(t *testing.T) {
	a, b := professionals(3), professionals(3)
	assert.Equal(t, Fingerprint(a), Fingerprint(b))

	b[0], b[1] = b[1], b[0]
	assert.NotEqual(t, Fingerprint(a), Fingerprint(b))
	assert.NotEqual(t, Fingerprint(a), Fingerprint(nil))
}

func TestCheckpoint_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cp.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := OpenCheckpoint(path, "run-1", "colaboradores", professionals(1), 1)
	assert.Error(t, err)
}

func TestCheckpoint_NilIsNoop(t *testing.T) {
	var cp *Checkpoint
	assert.False(t, cp.Done(1))
	assert.NoError(t, cp.MarkDone(1))
	assert.NoError(t, cp.Remove())
}
