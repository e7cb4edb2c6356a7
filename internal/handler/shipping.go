package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/shipping"
)

type updateShippingBody struct {
	Price *decimal.Decimal `json:"price" binding:"required"`
}

func (h *Handler) ListShippingPrices(c *gin.Context) {
	opts, fields, err := bindList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	prices, err := h.shipping.List(c.Request.Context(), opts, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeList(e, prices, func(e *jx.Encoder, p shipping.Price) {
			encodeShippingPrice(e, p, fields)
		})
	})
}

func (h *Handler) GetShippingPrice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	fields := bindFields(c)
	p, err := h.shipping.Get(c.Request.Context(), id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeShippingPrice(e, *p, fields)
	})
}

// UpdateShippingPrice handles PATCH /shipping-prices/{id}. The price must be
// positive.
func (h *Handler) UpdateShippingPrice(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var body updateShippingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}
	p, err := h.shipping.UpdatePrice(c.Request.Context(), id, *body.Price)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeShippingPrice(e, *p, nil)
	})
}
