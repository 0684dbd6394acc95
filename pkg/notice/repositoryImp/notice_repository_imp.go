package repositoryImp

import (
	"time"

	"gorm.io/gorm"

	"irrigation/entities"
	"irrigation/pkg/notice/repository"
)

type noticeRepo struct{ db *gorm.DB }

func New(db *gorm.DB) repository.NoticeRepository { return &noticeRepo{db} }

func (r *noticeRepo) Create(n *entities.Notice) error { return r.db.Create(n).Error }

func (r *noticeRepo) Recent(limit int) ([]entities.Notice, error) {
	var out []entities.Notice
	q := r.db.Order("created_at DESC, rowid DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *noticeRepo) DeleteBefore(t time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", t).Delete(&entities.Notice{})
	return res.RowsAffected, res.Error
}
