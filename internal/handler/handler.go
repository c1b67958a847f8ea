// Package handler exposes the shop over HTTP with a chi router.
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/burger-shop/internal/domain/auth"
	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/checkout"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
)

// CartService is the cart surface used by the storefront routes.
type CartService interface {
	GetContent(ctx context.Context, userID int64) (*cart.Cart, error)
	View(ctx context.Context, userID int64) (*cart.View, error)
	AddToCart(ctx context.Context, userID int64, items []cart.Item) error
	Update(ctx context.Context, userID int64, item cart.Item) error
	Empty(ctx context.Context, userID int64) error
}

// CheckoutService places orders.
type CheckoutService interface {
	Place(ctx context.Context, req checkout.Request) (*checkout.Result, error)
}

// OrderService is the order read side and status management.
type OrderService interface {
	ListByCustomer(ctx context.Context, customerID int64) ([]order.Order, error)
	GetAdminList(ctx context.Context, f order.AdminFilter) (*order.AdminPage, error)
	GetOrderDetail(ctx context.Context, id int64) (*order.Detail, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	GetDashboard(ctx context.Context) (*order.Dashboard, error)
}

// Authenticator validates admin API keys.
type Authenticator interface {
	Authenticate(ctx context.Context, key, scope string) (*auth.APIKeyInfo, error)
}

var (
	_ CartService     = (*cart.Service)(nil)
	_ CheckoutService = (*checkout.Service)(nil)
	_ OrderService    = (*order.Service)(nil)
	_ Authenticator   = (*auth.Authenticator)(nil)
)

// Handler serves the storefront and admin APIs.
type Handler struct {
	carts    CartService
	checkout CheckoutService
	orders   OrderService
	products product.Repository
	keys     Authenticator
	validate *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	carts CartService,
	checkout CheckoutService,
	orders OrderService,
	products product.Repository,
	keys Authenticator,
) *Handler {
	return &Handler{
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		products: products,
		keys:     keys,
		validate: newValidator(),
	}
}

// Routes returns the /api router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/stock", h.CheckStock)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)

			r.Get("/cart", h.GetCart)
			r.Delete("/cart", h.EmptyCart)
			r.Get("/cart/view", h.ViewCart)
			r.Post("/cart/items", h.AddToCart)
			r.Put("/cart/items", h.UpdateCartItem)
			r.Post("/checkout", h.Checkout)
			r.Get("/orders", h.ListOrders)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireAPIKey)

			r.Get("/orders", h.AdminListOrders)
			r.Get("/orders/{id}", h.AdminGetOrder)
			r.Put("/orders/{id}/status", h.AdminUpdateStatus)
			r.Get("/dashboard", h.Dashboard)
		})
	})
	return r
}

// newValidator reports field errors under their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads at most 1 MiB of request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
