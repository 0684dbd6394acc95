package entities

import "time"

// SnapshotEntry keeps the raw fields of one event of the latest snapshot.
// Status is recomputed on read from ReceivedAt of the owning snapshot.
type SnapshotEntry struct {
	EventID      string `gorm:"primaryKey" json:"id"`
	PlantName    string `json:"plantName"`
	SpecificDate string `json:"specificDate"`
	Time         string `json:"time"`
	Seq          uint64 `gorm:"index" json:"seq"`
}

func (SnapshotEntry) TableName() string { return "irrigation_snapshot" }

// SnapshotMeta is the single row describing the installed snapshot.
type SnapshotMeta struct {
	ID         uint      `gorm:"primaryKey"`
	Seq        uint64    `json:"seq"`
	ReceivedAt time.Time `json:"received_at"`
	Count      int       `json:"count"`
	UpdatedAt  time.Time
}

func (SnapshotMeta) TableName() string { return "irrigation_snapshot_meta" }
