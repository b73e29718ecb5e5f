package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lumiere/internal/export"
	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/views"
)

// StationsHandler serves the kitchen, cashier and analytics screens.
type StationsHandler struct {
	Broker   *live.Broker
	Funnel   *funnel.Funnel
	Location *time.Location
	AlertFor time.Duration
	Now      func() time.Time
}

type cashierView struct {
	Orders   []orderView    `json:"orders"`
	Counters views.Counters `json:"counters"`
}

type streamEvent struct {
	Seq       uint64   `json:"seq"`
	Alert     bool     `json:"alert"`
	NewOrders []string `json:"newOrders"`
	View      any      `json:"view"`
}

// Kitchen handles GET /api/kitchen.
func (h *StationsHandler) Kitchen(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(model.RoleKitchen, orders, r))
}

// Cashier handles GET /api/cashier with an optional ?status= filter.
func (h *StationsHandler) Cashier(w http.ResponseWriter, r *http.Request) {
	status := model.Status(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown status")
		return
	}
	orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(model.RoleCashier, orders, r))
}

// Analytics handles GET /api/analytics.
func (h *StationsHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.orders(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.view(model.RoleAnalytics, orders, r))
}

// Export handles GET /api/analytics/export.csv.
func (h *StationsHandler) Export(w http.ResponseWriter, r *http.Request) {
	orders, ok := h.orders(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(h.Now().In(h.Location))+`"`)
	if err := export.WriteCSV(w, orders); err != nil {
		slog.Error("writing csv export", "error", err)
		return
	}
	slog.Info("orders exported", "orders", len(orders))
}

// Stream handles GET /api/stream/{station}: a server-sent event per order
// snapshot and per alert change. Only the station's own role may listen.
func (h *StationsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	role := model.Role(r.PathValue("station"))
	if !model.RoleIn(role, model.RoleKitchen, model.RoleCashier, model.RoleAnalytics) {
		jsonError(w, http.StatusNotFound, "unknown station")
		return
	}
	if callerRole(r) != role {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}
	if status := model.Status(r.URL.Query().Get("status")); status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown status")
		return
	}

	ctx := r.Context()
	station, err := live.NewStation(ctx, h.Broker.Orders, h.AlertFor)
	if err != nil {
		storeError(w, err, "failed to open station stream")
		return
	}
	defer station.Close()

	sse, ok := startSSE(w)
	if !ok {
		return
	}
	slog.Debug("station stream opened", "station", role)

	for {
		u, err := station.Next(ctx)
		if err != nil {
			slog.Debug("station stream closed", "station", role, "reason", err)
			return
		}
		ev := streamEvent{
			Seq:       u.Snapshot.Seq,
			Alert:     u.Alert,
			NewOrders: u.NewOrders,
			View:      h.view(role, u.Snapshot.Data, r),
		}
		if ev.NewOrders == nil {
			ev.NewOrders = []string{}
		}
		if err := sse.send("snapshot", u.Snapshot.Seq, ev); err != nil {
			return
		}
	}
}

func (h *StationsHandler) orders(w http.ResponseWriter, r *http.Request) ([]model.Order, bool) {
	snap, err := h.Broker.Orders.Latest(r.Context())
	if err != nil {
		storeError(w, err, "failed to load orders")
		return nil, false
	}
	return snap.Data, true
}

// view renders orders the way the given station shows them.
func (h *StationsHandler) view(role model.Role, orders []model.Order, r *http.Request) any {
	switch role {
	case model.RoleKitchen:
		return orderViews(views.Kitchen(orders), h.Funnel, role)
	case model.RoleCashier:
		status := model.Status(r.URL.Query().Get("status"))
		return cashierView{
			Orders:   orderViews(views.Cashier(orders, status), h.Funnel, role),
			Counters: views.CashierCounters(orders),
		}
	case model.RoleAnalytics:
		return views.Summarize(orders, h.Now(), h.Location)
	}
	return nil
}
