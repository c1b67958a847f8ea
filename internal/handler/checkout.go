package handler

import (
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/burger-shop/internal/domain/checkout"
)

type checkoutResponse struct {
	Order orderDTO      `json:"order"`
	Items []lineItemDTO `json:"items"`
}

// Checkout serves POST /api/checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeValidation(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeValidation(w, err)
		return
	}

	userID, _ := UserID(r.Context())
	res, err := h.checkout.Place(r.Context(), checkout.Request{
		UserID: userID,
		Form: checkout.Form{
			Address: req.Address,
			City:    req.City,
			State:   req.State,
			Zip:     req.Zip,
			Card:    req.Card,
		},
	})
	if err != nil {
		fail(w, r, err)
		return
	}

	zctx.From(r.Context()).Info("Order placed",
		zap.Int64("order_id", res.Order.ID),
		zap.Stringer("total", res.Order.TotalAmount),
	)
	writeJSON(w, http.StatusCreated, checkoutResponse{
		Order: toOrderDTO(res.Order),
		Items: toLineItemDTOs(res.Items),
	})
}
