package entities

import "time"

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
	NoticeInfo    NoticeLevel = "info"
)

type NoticeKind string

const (
	KindSubmission NoticeKind = "submission"
	KindDeletion   NoticeKind = "deletion"
	KindTransport  NoticeKind = "transport"
	KindFeed       NoticeKind = "feed"
	KindMalformed  NoticeKind = "malformed"
	KindLifecycle  NoticeKind = "lifecycle"
)

// Notice is a user-visible, transient message (toast).
type Notice struct {
	ID        string      `gorm:"primaryKey" json:"id"`
	Level     NoticeLevel `gorm:"index" json:"level"`
	Kind      NoticeKind  `json:"kind"`
	Message   string      `json:"message"`
	Detail    string      `json:"detail,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"created_at"`
}
