package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/burger-shop/internal/domain/cart"
	"github.com/xenking/burger-shop/internal/domain/order"
	"github.com/xenking/burger-shop/internal/domain/product"
)

type cartItemDTO struct {
	ProductID int64  `json:"productId" validate:"gt=0"`
	Size      string `json:"size" validate:"required"`
	Quantity  int    `json:"quantity" validate:"lte=999"`
}

func (d cartItemDTO) item() cart.Item {
	return cart.Item{ProductID: d.ProductID, Size: d.Size, Quantity: d.Quantity}
}

func toCartItemDTOs(items []cart.Item) []cartItemDTO {
	out := make([]cartItemDTO, len(items))
	for i, it := range items {
		out[i] = cartItemDTO{ProductID: it.ProductID, Size: it.Size, Quantity: it.Quantity}
	}
	return out
}

type addItemsRequest struct {
	Items []cartItemDTO `json:"items" validate:"required,min=1,dive"`
}

type cartResponse struct {
	Items   []cartItemDTO `json:"items"`
	Version int64         `json:"version"`
}

type cartLineDTO struct {
	cartItemDTO
	Title     string           `json:"title"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
	LineTotal *decimal.Decimal `json:"lineTotal,omitempty"`
	Available bool             `json:"available"`
}

type cartViewResponse struct {
	Lines    []cartLineDTO   `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func toCartView(v *cart.View) cartViewResponse {
	lines := make([]cartLineDTO, len(v.Lines))
	for i, l := range v.Lines {
		lines[i] = cartLineDTO{
			cartItemDTO: cartItemDTO{ProductID: l.ProductID, Size: l.Size, Quantity: l.Quantity},
			Title:       l.Title,
			Available:   l.Available,
		}
		if l.Available {
			lines[i].UnitPrice = &l.UnitPrice
			lines[i].LineTotal = &l.LineTotal
		}
	}
	return cartViewResponse{Lines: lines, Subtotal: v.Subtotal}
}

type stockResponse struct {
	ProductID int64  `json:"productId"`
	Size      string `json:"size"`
	Stock     int    `json:"stock"`
}

type checkoutRequest struct {
	Address  string `json:"address" validate:"min=3"`
	City     string `json:"city" validate:"min=3"`
	State    string `json:"state" validate:"required"`
	Zip      string `json:"zip" validate:"required,numeric"`
	Card     string `json:"card" validate:"required,numeric"`
	ExpMonth string `json:"expMonth" validate:"len=2"`
	ExpYear  string `json:"expYear" validate:"len=2"`
	CVCode   string `json:"cvCode" validate:"len=3"`
}

type orderDTO struct {
	ID            int64           `json:"id"`
	CustomerID    int64           `json:"customerId"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	Status        order.Status    `json:"status"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentLast4  string          `json:"paymentLast4,omitempty"`
	Address       string          `json:"address"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Zip           string          `json:"zip"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toOrderDTO(o order.Order) orderDTO {
	return orderDTO{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		PaymentMethod: o.PaymentMethod,
		PaymentLast4:  o.PaymentLast4,
		Address:       o.Address,
		City:          o.City,
		State:         o.State,
		Zip:           o.Zip,
		CreatedAt:     o.CreatedAt,
	}
}

func toOrderDTOs(list []order.Order) []orderDTO {
	out := make([]orderDTO, len(list))
	for i, o := range list {
		out[i] = toOrderDTO(o)
	}
	return out
}

type lineItemDTO struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

func toLineItemDTOs(items []order.LineItem) []lineItemDTO {
	out := make([]lineItemDTO, len(items))
	for i, it := range items {
		out[i] = lineItemDTO{
			ID:        it.ID,
			ProductID: it.ProductID,
			Size:      it.Size,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	return out
}

type orderDetailResponse struct {
	Order orderDTO      `json:"order"`
	Items []lineItemDTO `json:"items"`
}

type adminRowDTO struct {
	orderDTO
	CustomerName  string `json:"customerName"`
	CustomerEmail string `json:"customerEmail"`
	ItemCount     int64  `json:"itemCount"`
}

type paginationDTO struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

type adminListResponse struct {
	Orders     []adminRowDTO `json:"orders"`
	Pagination paginationDTO `json:"pagination"`
}

func toAdminList(p *order.AdminPage) adminListResponse {
	rows := make([]adminRowDTO, len(p.Rows))
	for i, r := range p.Rows {
		rows[i] = adminRowDTO{
			orderDTO:      toOrderDTO(r.Order),
			CustomerName:  r.CustomerName,
			CustomerEmail: r.CustomerEmail,
			ItemCount:     r.ItemCount,
		}
	}
	return adminListResponse{
		Orders: rows,
		Pagination: paginationDTO{
			Page:  p.Pagination.Page,
			Limit: p.Pagination.Limit,
			Total: p.Pagination.Total,
			Pages: p.Pagination.Pages,
		},
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// chart is the {labels, values} shape consumed by the dashboard charts.
type chart struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

type outOfStockDTO struct {
	ProductID int64           `json:"productId"`
	Title     string          `json:"title"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
}

type dashboardResponse struct {
	TotalOrders int64           `json:"totalOrders"`
	Status      chart           `json:"status"`
	Monthly     chart           `json:"monthly"`
	TopProducts chart           `json:"topProducts"`
	OutOfStock  []outOfStockDTO `json:"outOfStock"`
}

func toDashboard(d *order.Dashboard, out []product.StockEntry) dashboardResponse {
	resp := dashboardResponse{
		Status:      chart{Labels: []string{}, Values: []int64{}},
		Monthly:     chart{Labels: []string{}, Values: []int64{}},
		TopProducts: chart{Labels: []string{}, Values: []int64{}},
		OutOfStock:  make([]outOfStockDTO, len(out)),
	}
	if d.Totals != nil {
		resp.TotalOrders = d.Totals.TotalOrders
		for _, c := range d.Totals.Breakdown {
			resp.Status.Labels = append(resp.Status.Labels, string(c.Status))
			resp.Status.Values = append(resp.Status.Values, c.Total)
		}
	}
	for _, m := range d.Monthly {
		resp.Monthly.Labels = append(resp.Monthly.Labels, m.Month)
		resp.Monthly.Values = append(resp.Monthly.Values, m.Total)
	}
	for _, p := range d.TopProducts {
		resp.TopProducts.Labels = append(resp.TopProducts.Labels, p.Title)
		resp.TopProducts.Values = append(resp.TopProducts.Values, p.TotalQuantity)
	}
	for i, e := range out {
		resp.OutOfStock[i] = outOfStockDTO{ProductID: e.ProductID, Title: e.Title, Size: e.Size, Price: e.Price}
	}
	return resp
}
