package serviceImp

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/feed"
	repo "irrigation/pkg/notice/repository"
	"irrigation/pkg/notice/service"
)

const (
	MsgFeedFailed   = "Falha na conexão com o servidor. Use \"Atualizar\" para tentar novamente."
	MsgEntryDropped = "Um agendamento recebido está incompleto e foi ignorado."
)

type noticeSvc struct {
	r     repo.NoticeRepository
	clock clock.Clock
}

func NewNoticeService(r repo.NoticeRepository, c clock.Clock) service.NoticeService {
	if c == nil {
		c = clock.Real(nil)
	}
	return &noticeSvc{r: r, clock: c}
}

func (s *noticeSvc) push(level entities.NoticeLevel, kind entities.NoticeKind, msg, detail string) entities.Notice {
	n := entities.Notice{
		ID:        uuid.NewString(),
		Level:     level,
		Kind:      kind,
		Message:   msg,
		Detail:    detail,
		CreatedAt: s.clock.Now().UTC(),
	}
	// A notice that cannot be stored is still returned to the caller.
	if err := s.r.Create(&n); err != nil {
		log.Printf("[notice] store %s: %v", n.ID, err)
	}
	return n
}

func (s *noticeSvc) Success(kind entities.NoticeKind, message string) entities.Notice {
	return s.push(entities.NoticeSuccess, kind, message, "")
}

func (s *noticeSvc) Error(kind entities.NoticeKind, message string, cause error) entities.Notice {
	detail := ""
	if cause != nil {
		detail = cause.Error()
		log.Printf("[notice] %s: %s (%v)", kind, message, cause)
	}
	return s.push(entities.NoticeError, kind, message, detail)
}

func (s *noticeSvc) Recent(limit int) ([]entities.Notice, error) { return s.r.Recent(limit) }

func (s *noticeSvc) Prune(olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("retention must be positive")
	}
	return s.r.DeleteBefore(s.clock.Now().UTC().Add(-olderThan))
}

func (s *noticeSvc) FeedFailed(err error) {
	s.Error(entities.KindFeed, MsgFeedFailed, err)
}

func (s *noticeSvc) EntryDropped(entry feed.MalformedEntry) {
	s.push(entities.NoticeInfo, entities.KindMalformed, MsgEntryDropped, entry.Error())
}
