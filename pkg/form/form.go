// Package form holds the schedule form: the draft a user edits, its
// validation rules and the idle/submitting/closed state machine.
package form

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"irrigation/entities"
	"irrigation/pkg/status"
)

const (
	FieldPlantName    = "plantName"
	FieldSpecificDate = "specificDate"
	FieldTime         = "time"

	MsgPlantName  = "Informe o nome da planta"
	MsgDate       = "A data deve ser hoje ou futura"
	MsgTime       = "Informe um horário"
	MsgFutureTime = "A hora deve ser futura em relação ao momento atual"
)

var (
	ErrBusy   = errors.New("submission already in progress")
	ErrClosed = errors.New("form is closed")
)

// Draft is what the user typed. It is discarded whenever the form closes.
type Draft struct {
	PlantName    string `json:"plantName" form:"plantName"`
	SpecificDate string `json:"specificDate" form:"specificDate"`
	Time         string `json:"time" form:"time"`
}

func (d Draft) Payload() entities.IrrigationPayload {
	return entities.IrrigationPayload{
		PlantName:    strings.TrimSpace(d.PlantName),
		SpecificDate: strings.TrimSpace(d.SpecificDate),
		Time:         strings.TrimSpace(d.Time),
	}
}

// DraftFrom pre-fills a draft from an existing event.
func DraftFrom(ev entities.IrrigationEvent) Draft {
	return Draft{PlantName: ev.PlantName, SpecificDate: ev.SpecificDate, Time: ev.Time}
}

// Mode is create when ID is empty, edit otherwise.
type Mode struct {
	ID string
}

func Create() Mode { return Mode{} }
func Edit(id string) Mode { return Mode{ID: id} }
func (m Mode) IsEdit() bool { return m.ID != "" }
func (m Mode) String() string {
	if m.IsEdit() {
		return "edit(" + m.ID + ")"
	}
	return "create"
}

// ValidationError maps field names to the message shown next to the field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid draft: " + strings.Join(parts, "; ")
}

// Validate checks a draft against now. Each field carries at most its first
// failing rule; the future-instant rule is reported on the time field and
// only evaluated when date and time are otherwise valid.
func Validate(d Draft, now time.Time) *ValidationError {
	p := d.Payload()
	errs := map[string]string{}

	if p.PlantName == "" {
		errs[FieldPlantName] = MsgPlantName
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	date, err := status.ParseDate(p.SpecificDate, loc)
	if err != nil || date.Before(today) {
		errs[FieldSpecificDate] = MsgDate
	}

	if p.Time == "" {
		errs[FieldTime] = MsgTime
	} else if _, _, err := status.ParseClock(p.Time); err != nil {
		errs[FieldTime] = MsgTime
	}

	if _, bad := errs[FieldSpecificDate]; !bad {
		if _, bad := errs[FieldTime]; !bad {
			start, _ := status.StartAt(p.SpecificDate, p.Time, loc)
			if !start.After(now) {
				errs[FieldTime] = MsgFutureTime
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Fields: errs}
}

// Saver performs the network submission of a validated draft.
type Saver interface {
	Save(ctx context.Context, mode Mode, payload entities.IrrigationPayload) error
}

type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateClosed     State = "closed"
)

// Form is one schedule dialog. It is not safe for concurrent use except that
// a Submit racing another Submit is rejected with ErrBusy.
type Form struct {
	mode   Mode
	state  State
	Draft  Draft
	Errors map[string]string
}

// New returns a closed form.
func New() *Form { return &Form{state: StateClosed} }

// OpenCreate opens the form with an empty draft.
func (f *Form) OpenCreate() {
	f.mode = Create()
	f.Draft = Draft{}
	f.Errors = nil
	f.state = StateIdle
}

// OpenEdit opens the form pre-filled from ev.
func (f *Form) OpenEdit(ev entities.IrrigationEvent) {
	f.mode = Edit(ev.ID)
	f.Draft = DraftFrom(ev)
	f.Errors = nil
	f.state = StateIdle
}

// Close discards the draft. A close while submitting is ignored.
func (f *Form) Close() {
	if f.state == StateSubmitting {
		return
	}
	f.Draft = Draft{}
	f.Errors = nil
	f.state = StateClosed
}

func (f *Form) Mode() Mode { return f.mode }
func (f *Form) State() State { return f.state }
func (f *Form) Busy() bool { return f.state == StateSubmitting }
func (f *Form) IsOpen() bool { return f.state != StateClosed }

// Title is the dialog heading.
func (f *Form) Title() string {
	if f.mode.IsEdit() {
		return "Editar Irrigação"
	}
	return "Agendar Irrigação"
}

// SubmitLabel is the text of the confirm button.
func (f *Form) SubmitLabel() string {
	if f.mode.IsEdit() {
		return "Atualizar"
	}
	return "Salvar"
}

// Begin validates the draft and moves the form to submitting. It returns
// the payload to send.
func (f *Form) Begin(now time.Time) (entities.IrrigationPayload, error) {
	switch f.state {
	case StateClosed:
		return entities.IrrigationPayload{}, ErrClosed
	case StateSubmitting:
		return entities.IrrigationPayload{}, ErrBusy
	}
	if verr := Validate(f.Draft, now); verr != nil {
		f.Errors = verr.Fields
		return entities.IrrigationPayload{}, verr
	}
	f.Errors = nil
	f.state = StateSubmitting
	return f.Draft.Payload(), nil
}

// Finish records the outcome of the submission started by Begin. Success
// closes the form; failure returns it to idle with the draft intact.
func (f *Form) Finish(err error) {
	if f.state != StateSubmitting {
		return
	}
	if err != nil {
		f.state = StateIdle
		return
	}
	f.state = StateIdle
	f.Close()
}

// Submit runs Begin, the save and Finish in one call.
func (f *Form) Submit(ctx context.Context, saver Saver, now time.Time) error {
	payload, err := f.Begin(now)
	if err != nil {
		return err
	}
	err = saver.Save(ctx, f.mode, payload)
	f.Finish(err)
	return err
}
