// Package viewer is a terminal dashboard for the irrigation schedule. It
// renders the same rows, actions and dialogs as the web dashboard, driven
// by the live feed.
package viewer

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/dashboard"
	"irrigation/pkg/export"
	"irrigation/pkg/feed"
	"irrigation/pkg/form"
	irrigationService "irrigation/pkg/irrigation/service"
	noticeService "irrigation/pkg/notice/service"
)

const (
	tickEvery   = time.Second
	noticeLimit = 3

	DefaultExportPath = "irrigacoes.xlsx"
)

type FeedState interface {
	State() feed.State
}

// Deps is what the model talks to. Updates is a feed subscription owned by
// the caller.
type Deps struct {
	Updates    <-chan *feed.Snapshot
	Feed       FeedState
	Service    irrigationService.IrrigationService
	Notices    noticeService.NoticeService
	Clock      clock.Clock
	ExportPath string
}

type snapshotMsg struct{ snap *feed.Snapshot }

type tickMsg time.Time

type submitResultMsg struct{ err error }

type deleteResultMsg struct{ err error }

type exportResultMsg struct {
	path string
	err  error
}

var fieldOrder = []string{form.FieldPlantName, form.FieldSpecificDate, form.FieldTime}

type Model struct {
	deps Deps
	keys KeyMap

	loading   bool
	snap      *feed.Snapshot
	rows      []dashboard.Row
	cursor    int
	feedState feed.State
	notices   []entities.Notice
	flash     string

	form    *form.Form
	inputs  []textinput.Model
	focus   int
	confirm *dashboard.DeleteConfirm

	width int
}

func NewModel(d Deps) Model {
	if d.Clock == nil {
		d.Clock = clock.Real(nil)
	}
	if d.ExportPath == "" {
		d.ExportPath = DefaultExportPath
	}
	return Model{
		deps:      d,
		keys:      DefaultKeyMap,
		loading:   true,
		feedState: feed.StateIdle,
		form:      form.New(),
		inputs:    newInputs(),
		confirm:   &dashboard.DeleteConfirm{},
	}
}

func newInputs() []textinput.Model {
	mk := func(placeholder string, limit int) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = limit
		ti.Prompt = ""
		return ti
	}
	return []textinput.Model{
		mk("Nome da planta", 80),
		mk("AAAA-MM-DD", 10),
		mk("HH:MM", 8),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(listen(m.deps.Updates), tick())
}

// listen blocks until the feed publishes the next snapshot.
func listen(ch <-chan *feed.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg{snap: snap}
	}
}

func tick() tea.Cmd {
	return tea.Tick(tickEvery, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case snapshotMsg:
		m.applySnapshot(msg.snap)
		m.reload()
		return m, listen(m.deps.Updates)

	case tickMsg:
		m.reload()
		return m, tick()

	case submitResultMsg:
		return m.finishSubmit(msg)

	case deleteResultMsg:
		return m.finishDelete(msg)

	case exportResultMsg:
		if msg.err != nil {
			m.flash = "Erro ao exportar: " + msg.err.Error()
		} else {
			m.flash = "Exportado para " + msg.path
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.form.IsOpen():
			return m.formKeys(msg)
		case m.confirm.IsOpen():
			return m.confirmKeys(msg)
		}
		return m.listKeys(msg)
	}
	return m, nil
}

func (m *Model) applySnapshot(s *feed.Snapshot) {
	if s == nil {
		return
	}
	selected := ""
	if row, ok := m.selected(); ok {
		selected = row.ID
	}
	m.loading = false
	m.snap = s
	m.rows = dashboard.Rows(s.Sorted())
	m.cursor = 0
	for i, r := range m.rows {
		if r.ID == selected {
			m.cursor = i
			break
		}
	}
}

// reload pulls the connection state and the latest notices.
func (m *Model) reload() {
	if m.deps.Feed != nil {
		m.feedState = m.deps.Feed.State()
	}
	if m.deps.Notices == nil {
		return
	}
	if ns, err := m.deps.Notices.Recent(noticeLimit); err == nil {
		m.notices = ns
	}
}

func (m Model) selected() (dashboard.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return dashboard.Row{}, false
	}
	return m.rows[m.cursor], true
}

func lifecycleMessage(err error) string {
	switch {
	case errors.Is(err, irrigationService.ErrNotEditable):
		return irrigationService.MsgNotEditable
	case errors.Is(err, irrigationService.ErrNotDeletable):
		return irrigationService.MsgNotDeletable
	default:
		return irrigationService.MsgNotFound
	}
}

func (m Model) listKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.flash = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.New):
		return m.openForm(nil)
	case key.Matches(msg, m.keys.Edit):
		row, ok := m.selected()
		if !ok {
			break
		}
		item, err := m.deps.Service.Editable(row.ID)
		if err != nil {
			m.flash = lifecycleMessage(err)
			break
		}
		return m.openForm(&item.IrrigationEvent)
	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selected()
		if !ok {
			break
		}
		item, err := m.deps.Service.Deletable(row.ID)
		if err != nil {
			m.flash = lifecycleMessage(err)
			break
		}
		if err := m.confirm.Open(item); err != nil {
			m.flash = irrigationService.MsgNotDeletable
		}
	case key.Matches(msg, m.keys.Refresh):
		m.deps.Service.Refresh()
		m.flash = irrigationService.MsgRefreshQueued
	case key.Matches(msg, m.keys.Export):
		if m.snap == nil {
			m.flash = dashboard.LoadingMessage
			break
		}
		return m, exportCmd(m.deps.ExportPath, m.snap.Sorted())
	}
	return m, nil
}

func (m Model) openForm(ev *entities.IrrigationEvent) (tea.Model, tea.Cmd) {
	if ev == nil {
		m.form.OpenCreate()
	} else {
		m.form.OpenEdit(*ev)
	}
	m.inputs = newInputs()
	values := []string{m.form.Draft.PlantName, m.form.Draft.SpecificDate, m.form.Draft.Time}
	for i := range m.inputs {
		m.inputs[i].SetValue(values[i])
	}
	m.focus = 0
	return m, m.inputs[0].Focus()
}

func (m *Model) setFocus(i int) tea.Cmd {
	n := len(m.inputs)
	i = ((i % n) + n) % n
	m.inputs[m.focus].Blur()
	m.focus = i
	return m.inputs[i].Focus()
}

func (m Model) draft() form.Draft {
	return form.Draft{
		PlantName:    m.inputs[0].Value(),
		SpecificDate: m.inputs[1].Value(),
		Time:         m.inputs[2].Value(),
	}
}

func (m Model) formKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.form.Close()
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		return m.submit()
	case key.Matches(msg, m.keys.NextField):
		return m, m.setFocus(m.focus + 1)
	case key.Matches(msg, m.keys.PrevField):
		return m, m.setFocus(m.focus - 1)
	}
	if m.form.Busy() {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

// submit validates locally and, when the draft is clean, hands a copy of
// the form to the service in the background. The model's form stays in
// submitting until the result arrives, so a repeated enter is dropped.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.form.Busy() {
		return m, nil
	}
	m.form.Draft = m.draft()
	pending := *m.form
	if _, err := m.form.Begin(m.deps.Clock.Now()); err != nil {
		return m, nil
	}
	svc := m.deps.Service
	return m, func() tea.Msg {
		return submitResultMsg{err: svc.Submit(context.Background(), &pending)}
	}
}

func (m Model) finishSubmit(msg submitResultMsg) (tea.Model, tea.Cmd) {
	m.form.Finish(msg.err)
	var verr *form.ValidationError
	switch {
	case msg.err == nil:
	case errors.As(msg.err, &verr):
		m.form.Errors = verr.Fields
	case errors.Is(msg.err, irrigationService.ErrNotEditable), errors.Is(msg.err, irrigationService.ErrNotFound):
		m.form.Close()
		m.flash = lifecycleMessage(msg.err)
	}
	m.reload()
	return m, nil
}

func (m Model) confirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Dismiss):
		m.confirm.Cancel()
	case key.Matches(msg, m.keys.Confirm):
		id, err := m.confirm.Begin()
		if err != nil {
			return m, nil
		}
		svc := m.deps.Service
		return m, func() tea.Msg {
			return deleteResultMsg{err: svc.Delete(context.Background(), id)}
		}
	}
	return m, nil
}

func (m Model) finishDelete(msg deleteResultMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.err == nil:
		m.confirm.Finish(nil, "")
	case errors.Is(msg.err, irrigationService.ErrNotDeletable), errors.Is(msg.err, irrigationService.ErrNotFound):
		// nothing left to confirm
		m.confirm.Finish(nil, "")
		m.flash = lifecycleMessage(msg.err)
	default:
		m.confirm.Finish(msg.err, irrigationService.MsgDeleteFailed)
	}
	m.reload()
	return m, nil
}

func exportCmd(path string, items []entities.IrrigationItem) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportResultMsg{err: err}
		}
		err = export.Write(f, items)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return exportResultMsg{path: path, err: err}
	}
}
