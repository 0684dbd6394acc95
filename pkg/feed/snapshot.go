package feed

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"irrigation/entities"
	"irrigation/pkg/status"
)

// Snapshot is one complete, immutable view of the schedule as pushed by the
// remote service. Published snapshots are never mutated.
type Snapshot struct {
	Seq        uint64                             `json:"seq"`
	ReceivedAt time.Time                          `json:"received_at"`
	Items      map[string]entities.IrrigationItem `json:"items"`
}

// Sorted returns the items ordered by start instant, then id.
func (s *Snapshot) Sorted() []entities.IrrigationItem {
	if s == nil {
		return nil
	}
	out := make([]entities.IrrigationItem, 0, len(s.Items))
	for _, it := range s.Items {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartAt.Equal(out[j].StartAt) {
			return out[i].StartAt.Before(out[j].StartAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get looks an item up by id.
func (s *Snapshot) Get(id string) (entities.IrrigationItem, bool) {
	if s == nil {
		return entities.IrrigationItem{}, false
	}
	it, ok := s.Items[id]
	return it, ok
}

type rawEntry struct {
	PlantName    string `json:"plantName"`
	SpecificDate string `json:"specificDate"`
	Time         string `json:"time"`
}

// Parse decodes one feed message into a snapshot with every status derived
// at now. Entries that cannot be projected are returned as malformed and
// left out of the snapshot. An error is returned only when the message as a
// whole is not an id-to-entry object.
func Parse(payload []byte, now time.Time) (*Snapshot, []MalformedEntry, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if raw == nil {
		// "null" is an empty schedule.
		raw = map[string]json.RawMessage{}
	}

	snap := &Snapshot{ReceivedAt: now, Items: make(map[string]entities.IrrigationItem, len(raw))}
	var dropped []MalformedEntry
	for id, msg := range raw {
		var e rawEntry
		if err := json.Unmarshal(msg, &e); err != nil {
			dropped = append(dropped, MalformedEntry{ID: id, Reason: "entry is not an object"})
			continue
		}
		if strings.TrimSpace(e.PlantName) == "" {
			dropped = append(dropped, MalformedEntry{ID: id, Reason: "missing plantName"})
			continue
		}
		if e.SpecificDate == "" {
			dropped = append(dropped, MalformedEntry{ID: id, Reason: "missing specificDate"})
			continue
		}
		if e.Time == "" {
			dropped = append(dropped, MalformedEntry{ID: id, Reason: "missing time"})
			continue
		}
		item, err := status.Describe(entities.IrrigationEvent{
			ID:           id,
			PlantName:    e.PlantName,
			SpecificDate: e.SpecificDate,
			Time:         e.Time,
		}, now)
		if err != nil {
			dropped = append(dropped, MalformedEntry{ID: id, Reason: err.Error()})
			continue
		}
		snap.Items[id] = item
	}
	sort.Slice(dropped, func(i, j int) bool { return dropped[i].ID < dropped[j].ID })
	return snap, dropped, nil
}
