package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/query"
)

type customerBody struct {
	Name    string  `json:"name" binding:"required"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   string  `json:"phone" binding:"required"`
	Address string  `json:"address" binding:"required"`
	City    string  `json:"city" binding:"required"`
	Wilaya  string  `json:"wilaya" binding:"required"`
}

type orderItemBody struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

type createOrderBody struct {
	Customer customerBody     `json:"customer"`
	Products []orderItemBody  `json:"products" binding:"required,min=1,dive"`
	Total    *decimal.Decimal `json:"total" binding:"required"`
}

type updateOrderBody struct {
	Status string `json:"status" binding:"required,oneof=PENDING CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

// CreateOrder handles POST /orders: it stores the customer, the order and its
// line items and answers with the order in PENDING state.
func (h *Handler) CreateOrder(c *gin.Context) {
	var body createOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}

	req := order.CreateRequest{
		Customer: customer.Customer{
			Name:    body.Customer.Name,
			Email:   body.Customer.Email,
			Phone:   body.Customer.Phone,
			Address: body.Customer.Address,
			City:    body.Customer.City,
			Wilaya:  body.Customer.Wilaya,
		},
		Items: make([]order.ItemRequest, len(body.Products)),
		Total: *body.Total,
	}
	for i, item := range body.Products {
		req.Items[i] = order.ItemRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// ListOrders handles GET /orders. status filters by order state.
func (h *Handler) ListOrders(c *gin.Context) {
	opts, _, err := bindList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter := query.Filter{}
	if status, ok := c.GetQuery("status"); ok {
		filter["status"] = status
	}

	orders, err := h.orders.List(c.Request.Context(), filter, opts)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeList(e, orders, encodeOrder)
	})
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}

// UpdateOrderStatus handles PATCH /orders/{id}.
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var body updateOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}
	o, err := h.orders.UpdateStatus(c.Request.Context(), id, order.Status(body.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeOrder(e, *o)
	})
}
