package serviceImp

import (
	"context"
	"errors"
	"log"
	"sync"

	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/form"
	repo "irrigation/pkg/irrigation/repository"
	"irrigation/pkg/irrigation/service"
	noticeService "irrigation/pkg/notice/service"
	"irrigation/pkg/status"
)

// Lookup finds an item of the latest snapshot.
type Lookup interface {
	Item(id string) (entities.IrrigationItem, bool)
}

// Refresher re-subscribes the live feed.
type Refresher interface {
	Refresh()
}

type irrigationSvc struct {
	r         repo.IrrigationRepository
	items     Lookup
	refresher Refresher
	notices   noticeService.NoticeService
	clock     clock.Clock

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewIrrigationService(r repo.IrrigationRepository, items Lookup, refresher Refresher, notices noticeService.NoticeService, c clock.Clock) service.IrrigationService {
	if c == nil {
		c = clock.Real(nil)
	}
	return &irrigationSvc{
		r:         r,
		items:     items,
		refresher: refresher,
		notices:   notices,
		clock:     c,
		inFlight:  map[string]struct{}{},
	}
}

// acquire marks key as in flight; false means a duplicate is running.
func (s *irrigationSvc) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *irrigationSvc) release(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

func (s *irrigationSvc) current(id string) (entities.IrrigationItem, error) {
	item, ok := s.items.Item(id)
	if !ok {
		return entities.IrrigationItem{}, service.ErrNotFound
	}
	// The snapshot status may be stale; judge the action against now.
	st, err := status.Derive(item.SpecificDate, item.Time, s.clock.Now())
	if err != nil {
		return entities.IrrigationItem{}, service.ErrNotFound
	}
	item.Status = st
	return item, nil
}

func (s *irrigationSvc) Editable(id string) (entities.IrrigationItem, error) {
	item, err := s.current(id)
	if err != nil {
		return item, err
	}
	if item.Status != entities.StatusAtivo {
		return item, service.ErrNotEditable
	}
	return item, nil
}

func (s *irrigationSvc) Deletable(id string) (entities.IrrigationItem, error) {
	item, err := s.current(id)
	if err != nil {
		return item, err
	}
	if item.Status == entities.StatusEmExecucao {
		return item, service.ErrNotDeletable
	}
	return item, nil
}

// Save implements form.Saver.
func (s *irrigationSvc) Save(ctx context.Context, mode form.Mode, p entities.IrrigationPayload) error {
	key := "save:" + mode.String()
	if !mode.IsEdit() {
		key += ":" + p.PlantName + "|" + p.SpecificDate + "|" + p.Time
	}
	if !s.acquire(key) {
		return service.ErrInFlight
	}
	defer s.release(key)

	if !mode.IsEdit() {
		return s.r.Create(ctx, p)
	}
	if _, err := s.Editable(mode.ID); err != nil {
		return err
	}
	return s.r.Update(ctx, mode.ID, p)
}

func (s *irrigationSvc) Submit(ctx context.Context, f *form.Form) error {
	edit := f.Mode().IsEdit()
	err := f.Submit(ctx, s, s.clock.Now())

	var verr *form.ValidationError
	switch {
	case err == nil:
		if edit {
			s.notices.Success(entities.KindSubmission, service.MsgUpdated)
		} else {
			s.notices.Success(entities.KindSubmission, service.MsgCreated)
		}
		s.Refresh()
	case errors.As(err, &verr):
		// shown inline next to the fields
	case errors.Is(err, form.ErrBusy), errors.Is(err, service.ErrInFlight):
		log.Printf("[irrigation] duplicate submit suppressed (%s)", f.Mode())
	case errors.Is(err, service.ErrNotEditable):
		s.notices.Error(entities.KindLifecycle, service.MsgNotEditable, err)
	case errors.Is(err, service.ErrNotFound):
		s.notices.Error(entities.KindLifecycle, service.MsgNotFound, err)
	default:
		s.notices.Error(entities.KindTransport, service.MsgSaveFailed, err)
	}
	return err
}

func (s *irrigationSvc) Delete(ctx context.Context, id string) error {
	key := "delete:" + id
	if !s.acquire(key) {
		log.Printf("[irrigation] duplicate delete of %s suppressed", id)
		return service.ErrInFlight
	}
	defer s.release(key)

	if _, err := s.Deletable(id); err != nil {
		msg := service.MsgNotDeletable
		if errors.Is(err, service.ErrNotFound) {
			msg = service.MsgNotFound
		}
		s.notices.Error(entities.KindLifecycle, msg, err)
		return err
	}
	if err := s.r.Delete(ctx, id); err != nil {
		s.notices.Error(entities.KindTransport, service.MsgDeleteFailed, err)
		return err
	}
	s.notices.Success(entities.KindDeletion, service.MsgDeleted)
	s.Refresh()
	return nil
}

func (s *irrigationSvc) Refresh() {
	if s.refresher != nil {
		s.refresher.Refresh()
	}
}
