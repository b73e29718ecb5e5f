package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lumiere/internal/funnel"
	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
)

// OrdersHandler handles placing, tracking and advancing orders.
type OrdersHandler struct {
	DB     *sql.DB
	Broker *live.Broker
	Funnel *funnel.Funnel
}

type orderLine struct {
	MenuItemID string `json:"menuItemId" validate:"required"`
	Qty        int    `json:"qty" validate:"min=1,max=99"`
}

type placeOrderRequest struct {
	Table    string      `json:"table" validate:"required,max=32,singleline"`
	Note     string      `json:"note" validate:"max=280"`
	PlacedAt *time.Time  `json:"placedAt"`
	Items    []orderLine `json:"items" validate:"required,min=1,dive"`
}

type advanceRequest struct {
	Expected model.Status `json:"expected"`
	To       model.Status `json:"to"`
}

// orderView is an order as a station sees it, with the steps the calling
// station may take next.
type orderView struct {
	model.Order
	Display string        `json:"displayId"`
	Actions []funnel.Rule `json:"actions,omitempty"`
}

func newOrderView(o model.Order, f *funnel.Funnel, role model.Role) orderView {
	v := orderView{Order: o, Display: o.DisplayID()}
	if f != nil && role != "" {
		v.Actions = f.Actions(o.Status, role)
	}
	return v
}

func orderViews(orders []model.Order, f *funnel.Funnel, role model.Role) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o, f, role))
	}
	return out
}

// Create handles POST /api/orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateRequest(req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	in := store.NewOrder{Table: req.Table, Note: req.Note}
	for _, l := range req.Items {
		in.Lines = append(in.Lines, model.CartLine{MenuItemID: l.MenuItemID, Qty: l.Qty})
	}
	if req.PlacedAt != nil {
		in.PlacedAt = *req.PlacedAt
	}

	order, err := store.CreateOrder(r.Context(), h.DB, in)
	if err != nil {
		storeError(w, err, "failed to place order")
		return
	}

	slog.Info("order placed", "id", order.ID, "table", order.Table, "total", order.Total.String())
	h.Broker.Changed(r.Context(), live.CollectionOrders)
	jsonResponse(w, http.StatusCreated, newOrderView(*order, nil, ""))
}

// Get handles GET /api/orders/{id}. Customers poll it to track their order.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	order, err := store.GetOrder(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		storeError(w, err, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}
	jsonResponse(w, http.StatusOK, newOrderView(*order, nil, ""))
}

// List handles GET /api/orders, newest first.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Broker.Orders.Latest(r.Context())
	if err != nil {
		storeError(w, err, "failed to list orders")
		return
	}
	jsonResponse(w, http.StatusOK, orderViews(snap.Data, h.Funnel, callerRole(r)))
}

// History handles GET /api/orders/{id}/history.
func (h *OrdersHandler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "order not found")
		return
	}

	history, err := store.GetOrderHistory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get order history")
		return
	}
	if history == nil {
		history = []model.StatusHistory{}
	}
	jsonResponse(w, http.StatusOK, history)
}

// Advance handles POST /api/orders/{id}/advance. Without "to" the order
// takes the first step the calling station may trigger.
func (h *OrdersHandler) Advance(w http.ResponseWriter, r *http.Request) {
	var req advanceRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Expected != "" && !req.Expected.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown expected status")
		return
	}
	if req.To != "" && !req.To.Valid() {
		jsonError(w, http.StatusBadRequest, "unknown target status")
		return
	}

	id := r.PathValue("id")
	role := callerRole(r)

	to := req.To
	if to == "" {
		from := req.Expected
		if from == "" {
			order, err := store.GetOrder(r.Context(), h.DB, id)
			if err != nil {
				storeError(w, err, "failed to get order")
				return
			}
			if order == nil {
				jsonError(w, http.StatusNotFound, "order not found")
				return
			}
			from = order.Status
		}
		actions := h.Funnel.Actions(from, role)
		if len(actions) == 0 {
			jsonError(w, http.StatusUnprocessableEntity, "no step available from "+string(from))
			return
		}
		to = actions[0].To
		if req.Expected == "" {
			req.Expected = from
		}
	}

	order, err := store.AdvanceOrderStatus(r.Context(), h.DB, h.Funnel, id, req.Expected, to, role)
	if err != nil {
		storeError(w, err, "failed to advance order")
		return
	}

	slog.Info("order advanced", "id", order.ID, "status", order.Status, "by", role)
	h.Broker.Changed(r.Context(), live.CollectionOrders)
	jsonResponse(w, http.StatusOK, newOrderView(*order, h.Funnel, role))
}

// Rules handles GET /api/funnel.
func (h *OrdersHandler) Rules(w http.ResponseWriter, r *http.Request) {
	role := callerRole(r)
	var mine []funnel.Rule
	for _, rule := range h.Funnel.Rules() {
		if rule.AllowedFor(role) {
			mine = append(mine, rule)
		}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"rules":    h.Funnel.Rules(),
		"triggers": mine,
	})
}

func callerRole(r *http.Request) model.Role {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Role
	}
	return ""
}
