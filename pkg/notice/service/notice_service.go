package service

import (
	"time"

	"irrigation/entities"
	"irrigation/pkg/feed"
)

// NoticeService is the single sink for user-visible messages. It also
// receives feed failures.
type NoticeService interface {
	feed.Reporter

	Success(kind entities.NoticeKind, message string) entities.Notice
	Error(kind entities.NoticeKind, message string, cause error) entities.Notice
	Recent(limit int) ([]entities.Notice, error)
	Prune(olderThan time.Duration) (int64, error)
}
