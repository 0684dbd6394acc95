package serviceImp

import (
	"context"
	"log"
	"sync"
	"time"

	"irrigation/entities"
	"irrigation/pkg/feed"
	repo "irrigation/pkg/snapshot/repository"
	"irrigation/pkg/snapshot/service"
	"irrigation/pkg/status"
)

type snapshotSvc struct {
	r   repo.SnapshotRepository
	loc *time.Location

	mu      sync.Mutex
	lastSeq uint64
}

func NewSnapshotService(r repo.SnapshotRepository, loc *time.Location) service.SnapshotService {
	if loc == nil {
		loc = time.Local
	}
	return &snapshotSvc{r: r, loc: loc}
}

func (s *snapshotSvc) Store(snap *feed.Snapshot) error {
	if snap == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if snap.Seq != 0 && snap.Seq <= s.lastSeq {
		return nil
	}

	entries := make([]entities.SnapshotEntry, 0, len(snap.Items))
	for _, it := range snap.Sorted() {
		entries = append(entries, entities.SnapshotEntry{
			EventID:      it.ID,
			PlantName:    it.PlantName,
			SpecificDate: it.SpecificDate,
			Time:         it.Time,
			Seq:          snap.Seq,
		})
	}
	meta := entities.SnapshotMeta{Seq: snap.Seq, ReceivedAt: snap.ReceivedAt.UTC()}
	if err := s.r.Replace(meta, entries); err != nil {
		return err
	}
	s.lastSeq = snap.Seq
	return nil
}

func (s *snapshotSvc) Current() (*feed.Snapshot, error) {
	meta, entries, err := s.r.Load()
	if err != nil || meta == nil {
		return nil, err
	}
	// Statuses are derived as of the arrival of the snapshot, like the feed does.
	at := meta.ReceivedAt.In(s.loc)
	out := &feed.Snapshot{Seq: meta.Seq, ReceivedAt: at, Items: make(map[string]entities.IrrigationItem, len(entries))}
	for _, e := range entries {
		item, err := status.Describe(entities.IrrigationEvent{
			ID:           e.EventID,
			PlantName:    e.PlantName,
			SpecificDate: e.SpecificDate,
			Time:         e.Time,
		}, at)
		if err != nil {
			log.Printf("[store] skipping %s: %v", e.EventID, err)
			continue
		}
		out.Items[e.EventID] = item
	}
	return out, nil
}

func (s *snapshotSvc) Item(id string) (entities.IrrigationItem, bool) {
	cur, err := s.Current()
	if err != nil {
		log.Printf("[store] load: %v", err)
		return entities.IrrigationItem{}, false
	}
	return cur.Get(id)
}

func (s *snapshotSvc) Sync(ctx context.Context, src feed.Source) {
	ch, unsubscribe := src.Subscribe()
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-ch:
			if !ok {
				return
			}
			if err := s.Store(snap); err != nil {
				log.Printf("[store] snapshot %d: %v", snap.Seq, err)
			}
		}
	}
}
