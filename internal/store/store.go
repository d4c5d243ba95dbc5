// Package store archives reading batches to the local file system (sqlite)
// so history survives sleep cycles and broker outages.
package store

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hollis/plant-sensor/internal/reading"
)

// StoredReading is one archived reading row.
type StoredReading struct {
	ID        uint `gorm:"primarykey"`
	BatchID   string
	BootCount uint32
	Time      time.Time
	Topic     string
	Name      string
	Value     string
	Unit      string
	Published bool
}

// Archive stores reading batches in a sqlite database.
type Archive struct {
	db  *gorm.DB
	now func() time.Time
}

// Open opens (creating if needed) the archive at the given path.
func Open(path string) (*Archive, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.AutoMigrate(&StoredReading{}); err != nil {
		return nil, fmt.Errorf("migrate archive: %w", err)
	}
	return &Archive{db: db, now: time.Now}, nil
}

// AddBatch archives every reading in the batch under a fresh batch id.
// published records whether the batch went out on the wire.
func (a *Archive) AddBatch(batch reading.Batch, bootCount uint32, published bool) error {
	if len(batch.Readings) == 0 {
		return nil
	}

	batchID := uuid.NewString()
	now := a.now()
	rows := make([]StoredReading, 0, len(batch.Readings))
	for _, r := range batch.Readings {
		rows = append(rows, StoredReading{
			BatchID:   batchID,
			BootCount: bootCount,
			Time:      now,
			Topic:     r.Topic(),
			Name:      r.Name(),
			Value:     r.Value(),
			Unit:      r.Unit(),
			Published: published,
		})
	}

	result := a.db.Create(&rows)
	if result.Error != nil {
		return fmt.Errorf("archive batch: %w", result.Error)
	}
	return nil
}

// Recent returns up to limit most recent rows, newest first.
func (a *Archive) Recent(limit int) ([]StoredReading, error) {
	var rows []StoredReading
	result := a.db.Limit(limit).Order("time desc, id desc").Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// Unpublished returns rows from batches that never reached the broker,
// oldest first, for later replay.
func (a *Archive) Unpublished(limit int) ([]StoredReading, error) {
	var rows []StoredReading
	result := a.db.Limit(limit).Order("time asc, id asc").
		Where("published = ?", false).Find(&rows)
	if result.Error != nil {
		return nil, result.Error
	}
	return rows, nil
}

// Prune deletes rows older than the cutoff, bounding database growth on a
// device with a small flash card.
func (a *Archive) Prune(olderThan time.Time) (int64, error) {
	result := a.db.Where("time < ?", olderThan).Delete(&StoredReading{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
