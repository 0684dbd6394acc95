package repository

import "irrigation/entities"

type SnapshotRepository interface {
	// Replace swaps the stored snapshot for a new one atomically.
	Replace(meta entities.SnapshotMeta, entries []entities.SnapshotEntry) error
	// Load returns a nil meta when no snapshot has been stored yet.
	Load() (*entities.SnapshotMeta, []entities.SnapshotEntry, error)
}
