package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hollis/plant-sensor/internal/reading"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.sqlite"))
	require.NoError(t, err)
	return a
}

func sampleBatch() reading.Batch {
	var b reading.Batch
	b.Append(reading.NewAirTemperature(21))
	b.Append(reading.NewBatteryVoltage(3700))
	b.Publish = true
	return b
}

func TestAddBatchAndRecent(t *testing.T) {
	a := openTestArchive(t)

	require.NoError(t, a.AddBatch(sampleBatch(), 5, true))

	rows, err := a.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Both rows share the batch id and boot count.
	assert.Equal(t, rows[0].BatchID, rows[1].BatchID)
	for _, row := range rows {
		assert.Equal(t, uint32(5), row.BootCount)
		assert.True(t, row.Published)
	}

	topics := []string{rows[0].Topic, rows[1].Topic}
	assert.Contains(t, topics, "temperature")
	assert.Contains(t, topics, "batteryvoltage")
}

func TestAddBatchEmptyIsNoop(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.AddBatch(reading.Batch{}, 1, false))

	rows, err := a.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSeparateBatchesGetSeparateIDs(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.AddBatch(sampleBatch(), 1, true))
	require.NoError(t, a.AddBatch(sampleBatch(), 2, true))

	rows, err := a.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	ids := map[string]bool{}
	for _, row := range rows {
		ids[row.BatchID] = true
	}
	assert.Len(t, ids, 2)
}

func TestUnpublished(t *testing.T) {
	a := openTestArchive(t)
	require.NoError(t, a.AddBatch(sampleBatch(), 1, false))
	require.NoError(t, a.AddBatch(sampleBatch(), 2, true))

	rows, err := a.Unpublished(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, uint32(1), row.BootCount)
		assert.False(t, row.Published)
	}
}

func TestPrune(t *testing.T) {
	a := openTestArchive(t)

	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return old }
	require.NoError(t, a.AddBatch(sampleBatch(), 1, true))

	recent := old.Add(48 * time.Hour)
	a.now = func() time.Time { return recent }
	require.NoError(t, a.AddBatch(sampleBatch(), 2, true))

	deleted, err := a.Prune(old.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	rows, err := a.Recent(10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, uint32(2), row.BootCount)
	}
}
