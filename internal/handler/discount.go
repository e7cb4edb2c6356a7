package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/query"
)

type createDiscountBody struct {
	Code      string           `json:"code" binding:"required"`
	Value     *decimal.Decimal `json:"value" binding:"required"`
	ValueType string           `json:"valueType" binding:"required,oneof=PERCENTAGE FIXED"`
}

type updateDiscountBody struct {
	Code      *string          `json:"code" binding:"omitempty,min=1"`
	Value     *decimal.Decimal `json:"value"`
	ValueType *string          `json:"valueType" binding:"omitempty,oneof=PERCENTAGE FIXED"`
	Active    *bool            `json:"active"`
}

// CreateDiscount handles POST /discounts. New discounts are active.
func (h *Handler) CreateDiscount(c *gin.Context) {
	var body createDiscountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}
	d := &discount.Discount{
		Code:      body.Code,
		Value:     *body.Value,
		ValueType: discount.ValueType(body.ValueType),
	}
	if err := h.discounts.Create(c.Request.Context(), d); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, func(e *jx.Encoder) {
		encodeDiscount(e, *d, nil)
	})
}

// ListDiscounts handles GET /discounts. active filters by state.
func (h *Handler) ListDiscounts(c *gin.Context) {
	opts, fields, err := bindList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter := query.Filter{}
	if raw, ok := c.GetQuery("active"); ok {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(c, apperr.BadRequest(`"active" must be a boolean`))
			return
		}
		filter["active"] = active
	}

	ds, err := h.discounts.List(c.Request.Context(), filter, opts, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeList(e, ds, func(e *jx.Encoder, d discount.Discount) {
			encodeDiscount(e, d, fields)
		})
	})
}

func (h *Handler) GetDiscount(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	fields := bindFields(c)
	d, err := h.discounts.Get(c.Request.Context(), id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeDiscount(e, *d, fields)
	})
}

func (h *Handler) UpdateDiscount(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var body updateDiscountBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}
	u := discount.Update{
		Code:   body.Code,
		Value:  body.Value,
		Active: body.Active,
	}
	if body.ValueType != nil {
		vt := discount.ValueType(*body.ValueType)
		u.ValueType = &vt
	}

	d, err := h.discounts.Update(c.Request.Context(), id, u)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeDiscount(e, *d, nil)
	})
}

func (h *Handler) DeleteDiscount(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := h.discounts.Delete(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	noContent(c)
}
