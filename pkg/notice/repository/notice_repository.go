package repository

import (
	"time"

	"irrigation/entities"
)

type NoticeRepository interface {
	Create(n *entities.Notice) error
	Recent(limit int) ([]entities.Notice, error)
	DeleteBefore(t time.Time) (int64, error)
}
