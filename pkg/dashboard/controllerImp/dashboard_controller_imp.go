package controllerImp

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"irrigation/entities"
	"irrigation/pkg/clock"
	"irrigation/pkg/dashboard"
	"irrigation/pkg/feed"
	"irrigation/pkg/form"
	irrigationService "irrigation/pkg/irrigation/service"
	noticeService "irrigation/pkg/notice/service"
	snapshotService "irrigation/pkg/snapshot/service"
)

const noticeLimit = 5

// FeedState reports the connection state shown in the page header.
type FeedState interface {
	State() feed.State
}

type DashboardCtrl struct {
	snaps   snapshotService.SnapshotService
	svc     irrigationService.IrrigationService
	notices noticeService.NoticeService
	feed    FeedState
	clock   clock.Clock
}

func New(snaps snapshotService.SnapshotService, svc irrigationService.IrrigationService, notices noticeService.NoticeService, fs FeedState, c clock.Clock) *DashboardCtrl {
	if c == nil {
		c = clock.Real(nil)
	}
	return &DashboardCtrl{snaps: snaps, svc: svc, notices: notices, feed: fs, clock: c}
}

type page struct {
	Title   string
	Loading string
	View    dashboard.View
	Form    *formPage
	Confirm *confirmPage
}

type formPage struct {
	Title       string
	SubmitLabel string
	Action      string
	Today       string
	Draft       form.Draft
	Errors      map[string]string
	Busy        bool
}

type confirmPage struct {
	Row      dashboard.Row
	Prompt   string
	Err      string
	Disabled bool
}

func (h *DashboardCtrl) view() dashboard.View {
	v := dashboard.View{Loading: true, FeedState: string(h.feed.State())}
	snap, err := h.snaps.Current()
	if err != nil {
		log.Printf("[dashboard] load snapshot: %v", err)
	}
	if snap != nil {
		v.Loading = false
		v.Seq = snap.Seq
		v.ReceivedAt = snap.ReceivedAt
		v.Rows = dashboard.Rows(snap.Sorted())
	}
	ns, err := h.notices.Recent(noticeLimit)
	if err != nil {
		log.Printf("[dashboard] load notices: %v", err)
	}
	v.Notices = ns
	return v
}

func (h *DashboardCtrl) page(title string) page {
	return page{Title: title, Loading: dashboard.LoadingMessage, View: h.view()}
}

// lifecycle records why an action on id is no longer available.
func (h *DashboardCtrl) lifecycle(err error) {
	msg := irrigationService.MsgNotFound
	switch {
	case errors.Is(err, irrigationService.ErrNotEditable):
		msg = irrigationService.MsgNotEditable
	case errors.Is(err, irrigationService.ErrNotDeletable):
		msg = irrigationService.MsgNotDeletable
	}
	h.notices.Error(entities.KindLifecycle, msg, err)
}

// outbound keeps a REST call alive when the browser goes away; a duplicate
// is suppressed by the service, never cancelled.
func outbound(c echo.Context) context.Context {
	return context.WithoutCancel(c.Request().Context())
}

func (h *DashboardCtrl) Index(c echo.Context) error {
	return c.Render(http.StatusOK, "dashboard.html", h.page("Agendamentos de Irrigação"))
}

func (h *DashboardCtrl) renderForm(c echo.Context, code int, f *form.Form, action string, busy bool) error {
	p := h.page(f.Title())
	p.Form = &formPage{
		Title:       f.Title(),
		SubmitLabel: f.SubmitLabel(),
		Action:      action,
		Today:       today(h.clock.Now()),
		Draft:       f.Draft,
		Errors:      f.Errors,
		Busy:        busy || f.Busy(),
	}
	if p.Form.Errors == nil {
		p.Form.Errors = map[string]string{}
	}
	return c.Render(code, "form.html", p)
}

func (h *DashboardCtrl) NewForm(c echo.Context) error {
	f := form.New()
	f.OpenCreate()
	return h.renderForm(c, http.StatusOK, f, "/irrigation", false)
}

func (h *DashboardCtrl) Create(c echo.Context) error {
	f := form.New()
	f.OpenCreate()
	return h.submit(c, f, "/irrigation")
}

func (h *DashboardCtrl) EditForm(c echo.Context) error {
	id := c.Param("id")
	item, err := h.svc.Editable(id)
	if err != nil {
		h.lifecycle(err)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	f := form.New()
	f.OpenEdit(item.IrrigationEvent)
	return h.renderForm(c, http.StatusOK, f, "/irrigation/"+id, false)
}

func (h *DashboardCtrl) Update(c echo.Context) error {
	id := c.Param("id")
	item, err := h.svc.Editable(id)
	if err != nil {
		h.lifecycle(err)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	f := form.New()
	f.OpenEdit(item.IrrigationEvent)
	return h.submit(c, f, "/irrigation/"+id)
}

func (h *DashboardCtrl) submit(c echo.Context, f *form.Form, action string) error {
	var d form.Draft
	if err := c.Bind(&d); err != nil {
		return c.String(http.StatusBadRequest, "invalid form")
	}
	f.Draft = d

	err := h.svc.Submit(outbound(c), f)
	var verr *form.ValidationError
	switch {
	case err == nil:
		return c.Redirect(http.StatusSeeOther, "/")
	case errors.As(err, &verr):
		return h.renderForm(c, http.StatusUnprocessableEntity, f, action, false)
	case errors.Is(err, irrigationService.ErrInFlight), errors.Is(err, form.ErrBusy):
		return h.renderForm(c, http.StatusConflict, f, action, true)
	case errors.Is(err, irrigationService.ErrNotEditable), errors.Is(err, irrigationService.ErrNotFound):
		return c.Redirect(http.StatusSeeOther, "/")
	default:
		// the draft stays so the user can retry
		return h.renderForm(c, http.StatusBadGateway, f, action, false)
	}
}

func (h *DashboardCtrl) renderConfirm(c echo.Context, code int, dc *dashboard.DeleteConfirm) error {
	p := h.page("Remover Irrigação")
	p.Confirm = &confirmPage{
		Row:      dashboard.RowFor(dc.Target),
		Prompt:   dashboard.DeletePrompt,
		Err:      dc.Err,
		Disabled: dc.Disabled(),
	}
	return c.Render(code, "confirm.html", p)
}

func (h *DashboardCtrl) ConfirmDelete(c echo.Context) error {
	item, err := h.svc.Deletable(c.Param("id"))
	if err != nil {
		h.lifecycle(err)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	var dc dashboard.DeleteConfirm
	if err := dc.Open(item); err != nil {
		h.lifecycle(irrigationService.ErrNotDeletable)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	return h.renderConfirm(c, http.StatusOK, &dc)
}

func (h *DashboardCtrl) Delete(c echo.Context) error {
	id := c.Param("id")
	err := h.svc.Delete(outbound(c), id)
	if err == nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if errors.Is(err, irrigationService.ErrNotDeletable) || errors.Is(err, irrigationService.ErrNotFound) {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	// judge the prompt against now, not the status stored with the snapshot
	item, derr := h.svc.Deletable(id)
	if derr != nil {
		h.lifecycle(derr)
		return c.Redirect(http.StatusSeeOther, "/")
	}
	var dc dashboard.DeleteConfirm
	if oerr := dc.Open(item); oerr != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if _, berr := dc.Begin(); berr != nil {
		return c.Redirect(http.StatusSeeOther, "/")
	}
	if errors.Is(err, irrigationService.ErrInFlight) {
		return h.renderConfirm(c, http.StatusConflict, &dc)
	}
	dc.Finish(err, irrigationService.MsgDeleteFailed)
	return h.renderConfirm(c, http.StatusBadGateway, &dc)
}

func (h *DashboardCtrl) Refresh(c echo.Context) error {
	h.svc.Refresh()
	h.notices.Success(entities.KindFeed, irrigationService.MsgRefreshQueued)
	return c.Redirect(http.StatusSeeOther, "/")
}
