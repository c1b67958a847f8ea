package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/xenking/burger-shop/internal/domain/cart"
)

// CheckStock serves GET /api/stock?id=&size=.
func (h *Handler) CheckStock(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	id, err := strconv.ParseInt(q.Get("id"), 10, 64)
	size := strings.TrimSpace(q.Get("size"))
	if err != nil || id <= 0 || size == "" {
		writeError(w, http.StatusBadRequest, "id and size are required")
		return
	}

	stock, err := h.products.CheckStock(r.Context(), id, size)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stockResponse{ProductID: id, Size: size, Stock: stock})
}

// GetCart serves GET /api/cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	c, err := h.carts.GetContent(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartResponse{Items: toCartItemDTOs(c.Items), Version: c.Version})
}

// ViewCart serves GET /api/cart/view, the cart priced from the catalog.
func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	v, err := h.carts.View(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartView(v))
}

// AddToCart serves POST /api/cart/items.
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	items := make([]cart.Item, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, it.item())
	}

	userID, _ := UserID(r.Context())
	if err := h.carts.AddToCart(r.Context(), userID, items); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateCartItem serves PUT /api/cart/items. A quantity of zero or less
// removes the line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	userID, _ := UserID(r.Context())
	if err := h.carts.Update(r.Context(), userID, req.item()); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EmptyCart serves DELETE /api/cart.
func (h *Handler) EmptyCart(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	if err := h.carts.Empty(r.Context(), userID); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
