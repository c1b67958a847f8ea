package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
)

// ListOrders serves GET /api/orders, the caller's order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserID(r.Context())
	list, err := h.orders.ListByCustomer(r.Context(), userID)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTOs(list))
}

// AdminListOrders serves GET /api/admin/orders?page=&limit=&status=&search=.
func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, ok := optionalInt(q.Get("page"))
	if !ok {
		writeError(w, http.StatusBadRequest, "page must be an integer")
		return
	}
	limit, ok := optionalInt(q.Get("limit"))
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	p, err := h.orders.GetAdminList(r.Context(), order.AdminFilter{
		Page:   page,
		Limit:  limit,
		Status: q.Get("status"),
		Search: q.Get("search"),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminList(p))
}

// AdminGetOrder serves GET /api/admin/orders/{id}.
func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	d, err := h.orders.GetOrderDetail(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderDetailResponse{
		Order: toOrderDTO(d.Order),
		Items: toLineItemDTOs(d.Items),
	})
}

// AdminUpdateStatus serves PUT /api/admin/orders/{id}/status.
func (h *Handler) AdminUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(w, r)
	if !ok {
		return
	}
	var req updateStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dashboard serves GET /api/admin/dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var (
		d   *order.Dashboard
		out []product.StockEntry
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		d, err = h.orders.GetDashboard(ctx)
		return err
	})
	g.Go(func() (err error) {
		out, err = h.products.OutOfStock(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d, out))
}

func orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return 0, false
	}
	return id, true
}

// optionalInt parses s, treating "" as zero.
func optionalInt(s string) (int, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.Atoi(s)
	return v, err == nil
}
