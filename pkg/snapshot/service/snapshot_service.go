package service

import (
	"context"

	"irrigation/entities"
	"irrigation/pkg/feed"
)

type SnapshotService interface {
	// Store installs s unless a newer snapshot is already stored.
	Store(s *feed.Snapshot) error
	// Current rebuilds the stored snapshot; nil until the first one arrives.
	Current() (*feed.Snapshot, error)
	Item(id string) (entities.IrrigationItem, bool)
	// Sync stores every snapshot src publishes until ctx is done.
	Sync(ctx context.Context, src feed.Source)
}
