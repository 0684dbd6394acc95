package viewer

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xuri/excelize/v2"

	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/dashboard"
	"irrigation/pkg/feed"
	"irrigation/pkg/form"
	irrigationService "irrigation/pkg/irrigation/service"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

type stubService struct {
	clk       clock.Clock
	items     map[string]entities.IrrigationItem
	saveErr   error
	deleteErr error
	saved     []entities.IrrigationPayload
	deleted   []string
	refreshed int
}

func (s *stubService) Save(_ context.Context, _ form.Mode, p entities.IrrigationPayload) error {
	s.saved = append(s.saved, p)
	return s.saveErr
}

func (s *stubService) Submit(ctx context.Context, f *form.Form) error {
	return f.Submit(ctx, s, s.clk.Now())
}

func (s *stubService) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.deleteErr
}

func (s *stubService) Editable(id string) (entities.IrrigationItem, error) {
	it, ok := s.items[id]
	if !ok {
		return it, irrigationService.ErrNotFound
	}
	if !dashboard.ActionsFor(it.Status).Edit {
		return it, irrigationService.ErrNotEditable
	}
	return it, nil
}

func (s *stubService) Deletable(id string) (entities.IrrigationItem, error) {
	it, ok := s.items[id]
	if !ok {
		return it, irrigationService.ErrNotFound
	}
	if !dashboard.ActionsFor(it.Status).Delete {
		return it, irrigationService.ErrNotDeletable
	}
	return it, nil
}

func (s *stubService) Refresh() { s.refreshed++ }

type stubNotices struct{ list []entities.Notice }

func (n *stubNotices) FeedFailed(error)                 {}
func (n *stubNotices) EntryDropped(feed.MalformedEntry) {}
func (n *stubNotices) Success(k entities.NoticeKind, msg string) entities.Notice {
	return n.add(entities.NoticeSuccess, k, msg)
}
func (n *stubNotices) Error(k entities.NoticeKind, msg string, _ error) entities.Notice {
	return n.add(entities.NoticeError, k, msg)
}
func (n *stubNotices) Recent(limit int) ([]entities.Notice, error) {
	if limit > len(n.list) {
		limit = len(n.list)
	}
	return n.list[:limit], nil
}
func (n *stubNotices) Prune(time.Duration) (int64, error) { return 0, nil }

func (n *stubNotices) add(l entities.NoticeLevel, k entities.NoticeKind, msg string) entities.Notice {
	no := entities.Notice{Level: l, Kind: k, Message: msg}
	n.list = append([]entities.Notice{no}, n.list...)
	return no
}

func testSnapshot(t *testing.T) *feed.Snapshot {
	t.Helper()
	snap, _, err := feed.Parse([]byte(`{
		"a": {"plantName": "Tomate", "specificDate": "2026-10-20", "time": "09:00"},
		"b": {"plantName": "Alface", "specificDate": "2026-10-19", "time": "10:03"},
		"c": {"plantName": "Couve", "specificDate": "2026-10-18", "time": "08:00"}
	}`), now)
	if err != nil {
		t.Fatal(err)
	}
	snap.Seq = 1
	return snap
}

func newTestModel(t *testing.T) (Model, *stubService) {
	t.Helper()
	snap := testSnapshot(t)
	svc := &stubService{clk: clock.NewFake(now), items: snap.Items}
	m := NewModel(Deps{
		Service:    svc,
		Notices:    &stubNotices{},
		Clock:      clock.NewFake(now),
		ExportPath: filepath.Join(t.TempDir(), "out.xlsx"),
	})
	updated, _ := m.Update(snapshotMsg{snap: snap})
	return updated.(Model), svc
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var updated tea.Model
		updated, cmd = m.Update(msg)
		m = updated.(Model)
	}
	return m, cmd
}

func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestLoadingUntilFirstSnapshot(t *testing.T) {
	m := NewModel(Deps{Service: &stubService{}})
	if !strings.Contains(m.View(), dashboard.LoadingMessage) {
		t.Errorf("view = %q", m.View())
	}
}

func TestRowsFollowSnapshotOrder(t *testing.T) {
	m, _ := newTestModel(t)
	if len(m.rows) != 3 || m.rows[0].ID != "c" || m.rows[2].ID != "a" {
		t.Fatalf("rows = %+v", m.rows)
	}
	view := m.View()
	if !strings.Contains(view, dashboard.RunningMarker) || !strings.Contains(view, "Tomate") {
		t.Errorf("view = %q", view)
	}
}

func TestSelectionSurvivesNewSnapshot(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "j", "j")
	if row, _ := m.selected(); row.ID != "a" {
		t.Fatalf("selected %q", row.ID)
	}
	updated, _ := m.Update(snapshotMsg{snap: testSnapshot(t)})
	m = updated.(Model)
	if row, _ := m.selected(); row.ID != "a" {
		t.Errorf("selection moved to %q", row.ID)
	}
}

func TestEditRunningIsRefused(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "j", "e")
	if m.form.IsOpen() {
		t.Fatal("form opened for a running item")
	}
	if m.flash != irrigationService.MsgNotEditable {
		t.Errorf("flash = %q", m.flash)
	}
}

func TestCreateShowsValidationErrors(t *testing.T) {
	m, svc := newTestModel(t)
	m, _ = press(t, m, "n")
	if !m.form.IsOpen() || m.form.Mode().IsEdit() {
		t.Fatal("create form not open")
	}
	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Error("invalid draft was submitted")
	}
	if m.form.Errors[form.FieldPlantName] != form.MsgPlantName || m.form.Errors[form.FieldTime] != form.MsgTime {
		t.Errorf("errors = %v", m.form.Errors)
	}
	if !strings.Contains(m.View(), form.MsgPlantName) {
		t.Error("error not rendered")
	}
	if len(svc.saved) != 0 {
		t.Error("service called")
	}
}

func TestCreateSubmitsOnce(t *testing.T) {
	m, svc := newTestModel(t)
	m, _ = press(t, m, "n", "Manjericão", "tab", "2026-10-21", "tab", "07:30")
	m, cmd := press(t, m, "enter")
	if !m.form.Busy() {
		t.Fatal("form not submitting")
	}
	if _, again := press(t, m, "enter"); again != nil {
		t.Error("second submit not suppressed")
	}
	m = run(t, m, cmd)
	if m.form.IsOpen() {
		t.Error("form still open after success")
	}
	if len(svc.saved) != 1 || svc.saved[0].PlantName != "Manjericão" || svc.saved[0].Time != "07:30" {
		t.Errorf("saved = %+v", svc.saved)
	}
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	m, svc := newTestModel(t)
	svc.saveErr = errors.New("502")
	m, _ = press(t, m, "n", "Manjericão", "tab", "2026-10-21", "tab", "07:30")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)
	if !m.form.IsOpen() || m.form.Busy() {
		t.Fatalf("form state = %s", m.form.State())
	}
	if m.inputs[0].Value() != "Manjericão" {
		t.Errorf("draft lost: %q", m.inputs[0].Value())
	}
}

func TestEditPrefills(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "j", "j", "e")
	if !m.form.Mode().IsEdit() || m.form.Mode().ID != "a" {
		t.Fatalf("mode = %v", m.form.Mode())
	}
	if m.inputs[0].Value() != "Tomate" || m.inputs[1].Value() != "2026-10-20" {
		t.Errorf("inputs = %q %q", m.inputs[0].Value(), m.inputs[1].Value())
	}
	m, _ = press(t, m, "esc")
	if m.form.IsOpen() {
		t.Error("esc did not close the form")
	}
}

func TestDeleteConfirmFlow(t *testing.T) {
	m, svc := newTestModel(t)
	svc.deleteErr = errors.New("boom")

	m, _ = press(t, m, "d")
	if !m.confirm.IsOpen() || m.confirm.Target.ID != "c" {
		t.Fatal("confirmation not open for the concluded row")
	}
	m, cmd := press(t, m, "y")
	if !m.confirm.Disabled() {
		t.Fatal("confirm not disabled while in flight")
	}
	if _, again := press(t, m, "y"); again != nil {
		t.Error("second confirm not suppressed")
	}
	m = run(t, m, cmd)
	if !m.confirm.IsOpen() || m.confirm.Err != irrigationService.MsgDeleteFailed {
		t.Errorf("after failure: open=%v err=%q", m.confirm.IsOpen(), m.confirm.Err)
	}

	svc.deleteErr = nil
	m, cmd = press(t, m, "y")
	m = run(t, m, cmd)
	if m.confirm.IsOpen() {
		t.Error("confirmation still open after success")
	}
	if len(svc.deleted) != 2 {
		t.Errorf("deleted = %v", svc.deleted)
	}
}

func TestDeleteRunningIsRefused(t *testing.T) {
	m, _ := newTestModel(t)
	m, _ = press(t, m, "j", "d")
	if m.confirm.IsOpen() {
		t.Fatal("confirmation opened for a running item")
	}
	if m.flash != irrigationService.MsgNotDeletable {
		t.Errorf("flash = %q", m.flash)
	}
}

func TestRefreshAsksForResubscribe(t *testing.T) {
	m, svc := newTestModel(t)
	m, _ = press(t, m, "r")
	if svc.refreshed != 1 || m.flash != irrigationService.MsgRefreshQueued {
		t.Errorf("refreshed=%d flash=%q", svc.refreshed, m.flash)
	}
}

func TestExportWritesFile(t *testing.T) {
	m, _ := newTestModel(t)
	m, cmd := press(t, m, "x")
	m = run(t, m, cmd)
	if !strings.HasPrefix(m.flash, "Exportado") {
		t.Fatalf("flash = %q", m.flash)
	}
	f, err := excelize.OpenFile(m.deps.ExportPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows("Irrigações")
	if err != nil || len(rows) != 4 {
		t.Errorf("rows = %v, %v", rows, err)
	}
}
