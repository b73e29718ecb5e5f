package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/erazemk/lumiere/internal/live"
	"github.com/erazemk/lumiere/internal/model"
	"github.com/erazemk/lumiere/internal/store"
)

// MenuHandler serves the customer menu and the menu admin.
type MenuHandler struct {
	DB     *sql.DB
	Broker *live.Broker
}

type menuItemRequest struct {
	Name      string          `json:"name" validate:"required,max=80,singleline"`
	Category  model.Category  `json:"category" validate:"omitempty,oneof=coffee tea food sweet"`
	Emoji     string          `json:"emoji" validate:"max=16,singleline"`
	ImageURL  string          `json:"imageUrl" validate:"omitempty,url"`
	Tag       string          `json:"tag" validate:"max=24,singleline"`
	Desc      string          `json:"desc" validate:"max=120"`
	Price     decimal.Decimal `json:"price"`
	Special   bool            `json:"special"`
	Available *bool           `json:"available"`
}

func (req menuItemRequest) item(id string) model.MenuItem {
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	return model.MenuItem{
		ID:        id,
		Name:      req.Name,
		Category:  req.Category,
		Emoji:     req.Emoji,
		ImageURL:  req.ImageURL,
		Tag:       req.Tag,
		Desc:      req.Desc,
		Price:     req.Price,
		Special:   req.Special,
		Available: available,
	}
}

type patchMenuItemRequest struct {
	Available *bool `json:"available"`
	Special   *bool `json:"special"`
}

type adminMenuResponse struct {
	Items  []model.MenuItem      `json:"items"`
	Stats  []model.CategoryStats `json:"stats"`
	Seeded int                   `json:"seeded"`
}

// List handles GET /api/menu. Only available items are listed.
func (h *MenuHandler) List(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Broker.Menu.Latest(r.Context())
	if err != nil {
		storeError(w, err, "failed to list menu")
		return
	}
	jsonResponse(w, http.StatusOK, customerMenu(snap.Data, model.Category(r.URL.Query().Get("category"))))
}

// customerMenu keeps available items, optionally of one category.
func customerMenu(items []model.MenuItem, category model.Category) []model.MenuItem {
	out := []model.MenuItem{}
	for _, m := range items {
		if !m.Available {
			continue
		}
		if category != "" && m.Category != category {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Stream handles GET /api/stream/menu.
func (h *MenuHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sub, err := h.Broker.Menu.Subscribe(r.Context())
	if err != nil {
		storeError(w, err, "failed to subscribe to menu")
		return
	}
	defer sub.Close()

	sse, ok := startSSE(w)
	if !ok {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snap, ok := <-sub.C:
			if !ok {
				return
			}
			if err := sse.send("menu", snap.Seq, customerMenu(snap.Data, "")); err != nil {
				return
			}
		}
	}
}

// AdminList handles GET /api/admin/menu. The default menu is written the
// first time the menu is found empty.
func (h *MenuHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	seeded, err := store.SeedMenu(r.Context(), h.DB, model.DefaultMenu())
	if err != nil {
		storeError(w, err, "failed to seed menu")
		return
	}
	if seeded > 0 {
		slog.Info("menu seeded", "items", seeded)
		h.Broker.Changed(r.Context(), live.CollectionMenu)
	}

	items, err := store.ListMenu(r.Context(), h.DB, false)
	if err != nil {
		storeError(w, err, "failed to list menu")
		return
	}
	if items == nil {
		items = []model.MenuItem{}
	}
	jsonResponse(w, http.StatusOK, adminMenuResponse{
		Items:  items,
		Stats:  model.StatsByCategory(items),
		Seeded: seeded,
	})
}

// Create handles POST /api/admin/menu.
func (h *MenuHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}

	item, err := store.CreateMenuItem(r.Context(), h.DB, req.item(""))
	if err != nil {
		storeError(w, err, "failed to create menu item")
		return
	}

	slog.Info("menu item created", "id", item.ID, "name", item.Name)
	h.Broker.Changed(r.Context(), live.CollectionMenu)
	jsonResponse(w, http.StatusCreated, item)
}

// Update handles PUT /api/admin/menu/{id}.
func (h *MenuHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMenuItem(w, r)
	if !ok {
		return
	}

	item, err := store.UpdateMenuItem(r.Context(), h.DB, req.item(r.PathValue("id")))
	if err != nil {
		storeError(w, err, "failed to update menu item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "menu item not found")
		return
	}

	slog.Info("menu item updated", "id", item.ID)
	h.Broker.Changed(r.Context(), live.CollectionMenu)
	jsonResponse(w, http.StatusOK, item)
}

// Patch handles PATCH /api/admin/menu/{id}: toggles availability and the
// Chef's Pick flag.
func (h *MenuHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var req patchMenuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Available == nil && req.Special == nil {
		jsonError(w, http.StatusBadRequest, "available or special required")
		return
	}

	id := r.PathValue("id")
	var item *model.MenuItem
	var err error
	if req.Available != nil {
		item, err = store.SetMenuItemAvailable(r.Context(), h.DB, id, *req.Available)
	}
	if err == nil && req.Special != nil && (req.Available == nil || item != nil) {
		item, err = store.SetMenuItemSpecial(r.Context(), h.DB, id, *req.Special)
	}
	if err != nil {
		storeError(w, err, "failed to update menu item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "menu item not found")
		return
	}

	slog.Info("menu item toggled", "id", id, "available", item.Available, "special", item.Special)
	h.Broker.Changed(r.Context(), live.CollectionMenu)
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/admin/menu/{id}.
func (h *MenuHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	deleted, err := store.DeleteMenuItem(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to delete menu item")
		return
	}
	if !deleted {
		jsonError(w, http.StatusNotFound, "menu item not found")
		return
	}

	slog.Info("menu item deleted", "id", id)
	h.Broker.Changed(r.Context(), live.CollectionMenu)
	w.WriteHeader(http.StatusNoContent)
}

func decodeMenuItem(w http.ResponseWriter, r *http.Request) (menuItemRequest, bool) {
	var req menuItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validateRequest(req); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return req, false
	}
	return req, true
}
