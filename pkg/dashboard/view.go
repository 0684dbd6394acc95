// Package dashboard is the list/detail view model shared by the web
// dashboard and the terminal viewer: which actions each row offers and the
// delete confirmation flow.
package dashboard

import (
	"errors"
	"time"

	"irrigation/entities"
)

const (
	RunningMarker  = "Em execução"
	LoadingMessage = "Carregando dados..."
	DeletePrompt   = "Tem certeza que deseja remover esta irrigação? Esta ação não pode ser desfeita."
)

var (
	ErrNotDeletable = errors.New("irrigation cannot be removed while running")
	ErrConfirmBusy  = errors.New("removal already in progress")
	ErrNoTarget     = errors.New("no removal pending confirmation")
)

// Actions is what a row lets the user do.
type Actions struct {
	Edit   bool   `json:"edit"`
	Delete bool   `json:"delete"`
	Marker string `json:"marker,omitempty"`
}

// ActionsFor maps a status to the available actions. A running event is
// immutable from the client's side.
func ActionsFor(s entities.Status) Actions {
	switch s {
	case entities.StatusAtivo:
		return Actions{Edit: true, Delete: true}
	case entities.StatusConcluido:
		return Actions{Delete: true}
	default:
		return Actions{Marker: RunningMarker}
	}
}

type Row struct {
	entities.IrrigationItem
	Actions     Actions `json:"actions"`
	StatusLabel string  `json:"statusLabel"`
	Variant     string  `json:"variant"`
}

func RowFor(it entities.IrrigationItem) Row {
	return Row{
		IrrigationItem: it,
		Actions:        ActionsFor(it.Status),
		StatusLabel:    it.Status.Label(),
		Variant:        it.Status.Variant(),
	}
}

func Rows(items []entities.IrrigationItem) []Row {
	out := make([]Row, 0, len(items))
	for _, it := range items {
		out = append(out, RowFor(it))
	}
	return out
}

// View is everything the dashboard page renders.
type View struct {
	Loading    bool              `json:"loading"`
	Seq        uint64            `json:"seq"`
	ReceivedAt time.Time         `json:"received_at"`
	FeedState  string            `json:"feed_state"`
	Rows       []Row             `json:"rows"`
	Notices    []entities.Notice `json:"notices,omitempty"`
}

type ConfirmState string

const (
	ConfirmClosed   ConfirmState = "closed"
	ConfirmOpen     ConfirmState = "open"
	ConfirmInFlight ConfirmState = "in_flight"
)

// DeleteConfirm is the secondary prompt shown before a DELETE is issued.
// While the request is in flight the confirm control is disabled.
type DeleteConfirm struct {
	state  ConfirmState
	Target entities.IrrigationItem
	Err    string
}

func (c *DeleteConfirm) State() ConfirmState {
	if c.state == "" {
		return ConfirmClosed
	}
	return c.state
}

func (c *DeleteConfirm) IsOpen() bool   { return c.State() != ConfirmClosed }
func (c *DeleteConfirm) Disabled() bool { return c.State() == ConfirmInFlight }

// Open shows the prompt for item. Running items cannot be removed.
func (c *DeleteConfirm) Open(item entities.IrrigationItem) error {
	if c.Disabled() {
		return ErrConfirmBusy
	}
	if !ActionsFor(item.Status).Delete {
		return ErrNotDeletable
	}
	c.state = ConfirmOpen
	c.Target = item
	c.Err = ""
	return nil
}

// Begin marks the confirmation as in flight and returns the target id. A
// second confirm while in flight is suppressed with ErrConfirmBusy.
func (c *DeleteConfirm) Begin() (string, error) {
	switch c.State() {
	case ConfirmClosed:
		return "", ErrNoTarget
	case ConfirmInFlight:
		return "", ErrConfirmBusy
	}
	c.state = ConfirmInFlight
	c.Err = ""
	return c.Target.ID, nil
}

// Finish closes the prompt on success and keeps it open with msg on failure.
func (c *DeleteConfirm) Finish(err error, msg string) {
	if c.State() != ConfirmInFlight {
		return
	}
	if err != nil {
		c.state = ConfirmOpen
		c.Err = msg
		return
	}
	c.reset()
}

// Cancel dismisses the prompt unless a request is in flight.
func (c *DeleteConfirm) Cancel() {
	if c.Disabled() {
		return
	}
	c.reset()
}

func (c *DeleteConfirm) reset() {
	c.state = ConfirmClosed
	c.Target = entities.IrrigationItem{}
	c.Err = ""
}
