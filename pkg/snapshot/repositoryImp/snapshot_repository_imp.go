package repositoryImp

import (
	"errors"

	"gorm.io/gorm"

	"irrigation/entities"
	"irrigation/pkg/snapshot/repository"
)

const metaID = 1

type snapshotRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.SnapshotRepository { return &snapshotRepo{db} }

func (r *snapshotRepo) Replace(meta entities.SnapshotMeta, entries []entities.SnapshotEntry) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&entities.SnapshotEntry{}).Error; err != nil {
			return err
		}
		if len(entries) > 0 {
			if err := tx.CreateInBatches(entries, 200).Error; err != nil {
				return err
			}
		}
		meta.ID = metaID
		meta.Count = len(entries)
		return tx.Save(&meta).Error
	})
}

func (r *snapshotRepo) Load() (*entities.SnapshotMeta, []entities.SnapshotEntry, error) {
	var meta entities.SnapshotMeta
	var entries []entities.SnapshotEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&meta, metaID).Error; err != nil {
			return err
		}
		return tx.Order("specific_date ASC, time ASC, event_id ASC").Find(&entries).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return &meta, entries, nil
}
