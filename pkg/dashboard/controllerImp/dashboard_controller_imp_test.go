package controllerImp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/labstack/echo/v4"

	"irrigation/database"
	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/dashboard"
	"irrigation/pkg/feed"
	"irrigation/pkg/form"
	irrigationRepoImp "irrigation/pkg/irrigation/repositoryImp"
	irrigationService "irrigation/pkg/irrigation/service"
	irrigationSvcImp "irrigation/pkg/irrigation/serviceImp"
	noticeRepoImp "irrigation/pkg/notice/repositoryImp"
	noticeService "irrigation/pkg/notice/service"
	noticeSvcImp "irrigation/pkg/notice/serviceImp"
	snapshotRepoImp "irrigation/pkg/snapshot/repositoryImp"
	snapshotService "irrigation/pkg/snapshot/service"
	snapshotSvcImp "irrigation/pkg/snapshot/serviceImp"
)

var now = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

const schedule = `{
	"a": {"plantName": "Tomate", "specificDate": "2026-10-20", "time": "09:00"},
	"b": {"plantName": "Alface", "specificDate": "2026-10-19", "time": "10:03"},
	"c": {"plantName": "Couve", "specificDate": "2026-10-18", "time": "08:00"}
}`

type activeFeed struct{}

func (activeFeed) State() feed.State { return feed.StateActive }

type refresher struct {
	mu sync.Mutex
	n  int
}

func (r *refresher) Refresh() {
	r.mu.Lock()
	r.n++
	r.mu.Unlock()
}

type backend struct {
	mu     sync.Mutex
	calls  []string
	bodies []entities.IrrigationPayload
	status int
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, r.Method+" "+r.URL.Path)
	if r.Body != nil && r.ContentLength != 0 {
		var p entities.IrrigationPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		b.bodies = append(b.bodies, p)
	}
	if b.status != 0 {
		w.WriteHeader(b.status)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type fixture struct {
	e       *echo.Echo
	clk     *clock.Fake
	backend *backend
	refresh *refresher
	notices noticeService.NoticeService
	snaps   snapshotService.SnapshotService
}

func setup(t *testing.T, withSnapshot bool) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	clk := clock.NewFake(now)
	notices := noticeSvcImp.NewNoticeService(noticeRepoImp.New(db), clk)
	snaps := snapshotSvcImp.NewSnapshotService(snapshotRepoImp.New(db), time.UTC)
	if withSnapshot {
		snap, _, err := feed.Parse([]byte(schedule), now)
		if err != nil {
			t.Fatal(err)
		}
		snap.Seq = 1
		if err := snaps.Store(snap); err != nil {
			t.Fatal(err)
		}
	}

	be := &backend{}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	ref := &refresher{}
	svc := irrigationSvcImp.NewIrrigationService(irrigationRepoImp.New(srv.URL, srv.Client()), snaps, ref, notices, clk)

	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	e := echo.New()
	e.Renderer = r
	h := New(snaps, svc, notices, activeFeed{}, clk)
	e.GET("/", h.Index)
	e.GET("/irrigation/new", h.NewForm)
	e.POST("/irrigation", h.Create)
	e.GET("/irrigation/:id/edit", h.EditForm)
	e.POST("/irrigation/:id", h.Update)
	e.GET("/irrigation/:id/delete", h.ConfirmDelete)
	e.POST("/irrigation/:id/delete", h.Delete)
	e.POST("/refresh", h.Refresh)

	return &fixture{e: e, clk: clk, backend: be, refresh: ref, notices: notices, snaps: snaps}
}

func (f *fixture) do(t *testing.T, method, target string, form url.Values) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	return f.doCtx(t, context.Background(), method, target, form)
}

func (f *fixture) doCtx(t *testing.T, ctx context.Context, method, target string, form url.Values) (*httptest.ResponseRecorder, *goquery.Document) {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	if err != nil {
		t.Fatal(err)
	}
	return rec, doc
}

func (f *fixture) hasNotice(t *testing.T, msg string) bool {
	t.Helper()
	ns, err := f.notices.Recent(20)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range ns {
		if n.Message == msg {
			return true
		}
	}
	return false
}

func TestIndexRendersActionsPerStatus(t *testing.T) {
	f := setup(t, true)
	rec, doc := f.do(t, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}

	cases := []struct {
		id           string
		edit, delete bool
		running      bool
		label        string
	}{
		{"a", true, true, false, "Ativo"},
		{"b", false, false, true, "Em execução"},
		{"c", false, true, false, "Concluido"},
	}
	for _, tc := range cases {
		row := doc.Find(`tr[data-id="` + tc.id + `"]`)
		if row.Length() != 1 {
			t.Fatalf("row %s not rendered", tc.id)
		}
		if got := row.Find("a.edit").Length() == 1; got != tc.edit {
			t.Errorf("row %s edit = %v", tc.id, got)
		}
		if got := row.Find("a.delete").Length() == 1; got != tc.delete {
			t.Errorf("row %s delete = %v", tc.id, got)
		}
		marker := strings.TrimSpace(row.Find(".running").Text())
		if tc.running && marker != dashboard.RunningMarker {
			t.Errorf("row %s marker = %q", tc.id, marker)
		}
		if !tc.running && marker != "" {
			t.Errorf("row %s unexpected marker %q", tc.id, marker)
		}
		if got := strings.TrimSpace(row.Find(".badge").Text()); got != tc.label {
			t.Errorf("row %s label = %q, want %q", tc.id, got, tc.label)
		}
	}

	ids := doc.Find("tbody tr").Map(func(_ int, s *goquery.Selection) string {
		id, _ := s.Attr("data-id")
		return id
	})
	if strings.Join(ids, ",") != "c,b,a" {
		t.Errorf("row order = %v", ids)
	}
}

func TestIndexShowsLoadingBeforeFirstSnapshot(t *testing.T) {
	f := setup(t, false)
	_, doc := f.do(t, http.MethodGet, "/", nil)
	if got := strings.TrimSpace(doc.Find("#loading").Text()); got != dashboard.LoadingMessage {
		t.Errorf("loading = %q", got)
	}
	if doc.Find("#irrigations").Length() != 0 {
		t.Error("table rendered while loading")
	}
}

func TestCreateInvalidRendersFieldErrors(t *testing.T) {
	f := setup(t, true)
	rec, doc := f.do(t, http.MethodPost, "/irrigation", url.Values{
		"plantName":    {"  "},
		"specificDate": {"2026-10-18"},
		"time":         {""},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("code = %d", rec.Code)
	}
	want := map[string]string{
		form.FieldPlantName:    form.MsgPlantName,
		form.FieldSpecificDate: form.MsgDate,
		form.FieldTime:         form.MsgTime,
	}
	for field, msg := range want {
		got := strings.TrimSpace(doc.Find(`.field-error[data-field="` + field + `"]`).Text())
		if got != msg {
			t.Errorf("%s error = %q, want %q", field, got, msg)
		}
	}
	if len(f.backend.calls) != 0 {
		t.Errorf("invalid draft reached the API: %v", f.backend.calls)
	}
}

func TestCreateSendsAndRedirects(t *testing.T) {
	f := setup(t, true)
	rec, _ := f.do(t, http.MethodPost, "/irrigation", url.Values{
		"plantName":    {"Manjericão"},
		"specificDate": {"2026-10-21"},
		"time":         {"07:30"},
	})
	if rec.Code != http.StatusSeeOther || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("code = %d location = %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "POST /irrigation" {
		t.Fatalf("calls = %v", f.backend.calls)
	}
	if got := f.backend.bodies[0]; got.PlantName != "Manjericão" || got.SpecificDate != "2026-10-21" || got.Time != "07:30" {
		t.Errorf("body = %+v", got)
	}
	if f.refresh.n != 1 {
		t.Errorf("refresh count = %d", f.refresh.n)
	}
	if !f.hasNotice(t, irrigationService.MsgCreated) {
		t.Error("success notice missing")
	}
}

func TestCreateTransportFailureKeepsDraft(t *testing.T) {
	f := setup(t, true)
	f.backend.status = http.StatusInternalServerError
	rec, doc := f.do(t, http.MethodPost, "/irrigation", url.Values{
		"plantName":    {"Manjericão"},
		"specificDate": {"2026-10-21"},
		"time":         {"07:30"},
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
	if v, _ := doc.Find(`input[name="plantName"]`).Attr("value"); v != "Manjericão" {
		t.Errorf("draft lost: %q", v)
	}
	if got := strings.TrimSpace(doc.Find(".notice-error").First().Text()); got != irrigationService.MsgSaveFailed {
		t.Errorf("notice = %q", got)
	}
	if f.refresh.n != 0 {
		t.Error("refresh after failed save")
	}
}

func TestEditFormPrefills(t *testing.T) {
	f := setup(t, true)
	rec, doc := f.do(t, http.MethodGet, "/irrigation/a/edit", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if v, _ := doc.Find(`input[name="plantName"]`).Attr("value"); v != "Tomate" {
		t.Errorf("plantName = %q", v)
	}
	if action, _ := doc.Find("form#schedule").Attr("action"); action != "/irrigation/a" {
		t.Errorf("action = %q", action)
	}
	if got := strings.TrimSpace(doc.Find(`button[type="submit"]`).Text()); got != "Atualizar" {
		t.Errorf("submit label = %q", got)
	}
}

func TestUpdateSendsPut(t *testing.T) {
	f := setup(t, true)
	rec, _ := f.do(t, http.MethodPost, "/irrigation/a", url.Values{
		"plantName":    {"Tomate cereja"},
		"specificDate": {"2026-10-20"},
		"time":         {"09:00"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "PUT /irrigation/a" {
		t.Fatalf("calls = %v", f.backend.calls)
	}
	if !f.hasNotice(t, irrigationService.MsgUpdated) {
		t.Error("update notice missing")
	}
}

func TestEditRunningItemRedirects(t *testing.T) {
	f := setup(t, true)
	for _, path := range []string{"/irrigation/b/edit", "/irrigation/c/edit"} {
		rec, _ := f.do(t, http.MethodGet, path, nil)
		if rec.Code != http.StatusSeeOther {
			t.Errorf("%s code = %d", path, rec.Code)
		}
	}
	if !f.hasNotice(t, irrigationService.MsgNotEditable) {
		t.Error("lifecycle notice missing")
	}
}

func TestConfirmDeleteShowsPrompt(t *testing.T) {
	f := setup(t, true)
	rec, doc := f.do(t, http.MethodGet, "/irrigation/c/delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if got := strings.TrimSpace(doc.Find("#prompt").Text()); got != dashboard.DeletePrompt {
		t.Errorf("prompt = %q", got)
	}
	if len(f.backend.calls) != 0 {
		t.Error("opening the prompt issued a request")
	}
}

func TestConfirmDeleteRunningRedirects(t *testing.T) {
	f := setup(t, true)
	rec, _ := f.do(t, http.MethodGet, "/irrigation/b/delete", nil)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
	if !f.hasNotice(t, irrigationService.MsgNotDeletable) {
		t.Error("lifecycle notice missing")
	}
}

func TestDeleteSuccessRedirects(t *testing.T) {
	f := setup(t, true)
	rec, _ := f.do(t, http.MethodPost, "/irrigation/c/delete", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "DELETE /irrigation/c" {
		t.Fatalf("calls = %v", f.backend.calls)
	}
	if !f.hasNotice(t, irrigationService.MsgDeleted) {
		t.Error("deleted notice missing")
	}
}

func TestDeleteFailureKeepsConfirmation(t *testing.T) {
	f := setup(t, true)
	f.backend.status = http.StatusInternalServerError
	rec, doc := f.do(t, http.MethodPost, "/irrigation/a/delete", url.Values{})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d", rec.Code)
	}
	if got := strings.TrimSpace(doc.Find("#confirm-error").Text()); got != irrigationService.MsgDeleteFailed {
		t.Errorf("error = %q", got)
	}
	if _, disabled := doc.Find(`form#confirm button[type="submit"]`).Attr("disabled"); disabled {
		t.Error("confirm stays disabled after failure")
	}
}

func TestRefreshResubscribes(t *testing.T) {
	f := setup(t, true)
	rec, _ := f.do(t, http.MethodPost, "/refresh", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
	if f.refresh.n != 1 {
		t.Errorf("refresh count = %d", f.refresh.n)
	}
}

func TestCreateOutlivesClientDisconnect(t *testing.T) {
	f := setup(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec, _ := f.doCtx(t, ctx, http.MethodPost, "/irrigation", url.Values{
		"plantName":    {"Manjericão"},
		"specificDate": {"2026-10-21"},
		"time":         {"07:30"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("code = %d", rec.Code)
	}
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "POST /irrigation" {
		t.Errorf("calls = %v", f.backend.calls)
	}
}

func TestDeleteFailureUsesCurrentStatus(t *testing.T) {
	f := setup(t, true)
	f.backend.status = http.StatusInternalServerError
	// b was running when the snapshot arrived and has since finished
	f.clk.Advance(10 * time.Minute)

	rec, _ := f.do(t, http.MethodGet, "/irrigation/b/delete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm code = %d", rec.Code)
	}
	rec, doc := f.do(t, http.MethodPost, "/irrigation/b/delete", url.Values{})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("code = %d location = %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if got := strings.TrimSpace(doc.Find("#confirm-error").Text()); got != irrigationService.MsgDeleteFailed {
		t.Errorf("error = %q", got)
	}
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "DELETE /irrigation/b" {
		t.Errorf("calls = %v", f.backend.calls)
	}
}

func TestIndexReloadsOnlyForNewerSnapshot(t *testing.T) {
	f := setup(t, true)
	_, doc := f.do(t, http.MethodGet, "/", nil)
	script := doc.Find("script").Text()
	if !strings.Contains(script, "id > seq") {
		t.Errorf("reload is not limited to newer snapshots: %s", script)
	}
	if strings.Contains(script, "!== seq") {
		t.Errorf("any differing sequence reloads: %s", script)
	}
	if !strings.Contains(script, `"irrigation.reloadedFor"`) {
		t.Errorf("reload not guarded per sequence: %s", script)
	}
}
