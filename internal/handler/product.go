package handler

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
)

type createProductForm struct {
	Title       string                `form:"title" binding:"required"`
	Price       string                `form:"price" binding:"required"`
	Description string                `form:"description"`
	Categories  []string              `form:"categories"`
	Quantity    *int                  `form:"quantity" binding:"omitempty,min=0"`
	Image       *multipart.FileHeader `form:"image"`
}

type updateProductBody struct {
	Title       *string          `json:"title" binding:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Image       *string          `json:"image"`
	Categories  *[]string        `json:"categories"`
	Quantity    *int             `json:"quantity" binding:"omitempty,min=0"`
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Decimal{}, apperr.BadRequest(`"price" must be a non-negative number`)
	}
	return price, nil
}

// CreateProduct handles POST /products. The body is multipart form data with
// an optional image file.
func (h *Handler) CreateProduct(c *gin.Context) {
	var form createProductForm
	if err := c.ShouldBind(&form); err != nil {
		writeError(c, bindingError(err))
		return
	}
	price, err := parsePrice(form.Price)
	if err != nil {
		writeError(c, err)
		return
	}

	p := &product.Product{
		Title:       form.Title,
		Price:       price,
		Description: form.Description,
		Categories:  form.Categories,
	}
	if form.Quantity != nil {
		p.Quantity = *form.Quantity
	}
	if form.Image != nil {
		path, err := h.images.Save(form.Image)
		if err != nil {
			writeError(c, err)
			return
		}
		p.Image = path
	}

	if err := h.products.Create(c.Request.Context(), p); err != nil {
		if p.Image != "" {
			if rmErr := h.images.Remove(p.Image); rmErr != nil {
				zctx.From(c.Request.Context()).Warn("Remove orphaned image", zap.Error(rmErr))
			}
		}
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, func(e *jx.Encoder) {
		encodeProduct(e, *p, nil)
	})
}

// ListProducts handles GET /products. title and price filter by equality.
func (h *Handler) ListProducts(c *gin.Context) {
	opts, fields, err := bindList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	filter := query.Filter{}
	if title, ok := c.GetQuery("title"); ok {
		filter["title"] = title
	}
	if raw, ok := c.GetQuery("price"); ok {
		price, err := parsePrice(raw)
		if err != nil {
			writeError(c, err)
			return
		}
		filter["price"] = price
	}

	products, err := h.products.List(c.Request.Context(), filter, opts, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeList(e, products, func(e *jx.Encoder, p product.Product) {
			encodeProduct(e, p, fields)
		})
	})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	fields := bindFields(c)
	p, err := h.products.Get(c.Request.Context(), id, fields)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p, fields)
	})
}

// UpdateProduct handles PATCH /products/{id} with a partial JSON body.
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	var body updateProductBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, bindingError(err))
		return
	}
	if body.Price != nil && body.Price.IsNegative() {
		writeError(c, apperr.BadRequest(`"price" must be a non-negative number`))
		return
	}

	p, err := h.products.Update(c.Request.Context(), id, product.Update{
		Title:       body.Title,
		Price:       body.Price,
		Description: body.Description,
		Image:       body.Image,
		Categories:  body.Categories,
		Quantity:    body.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeProduct(e, *p, nil)
	})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	p, err := h.products.Delete(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if p.Image != "" {
		if err := h.images.Remove(p.Image); err != nil {
			zctx.From(c.Request.Context()).Warn("Remove product image",
				zap.Int64("product_id", id),
				zap.Error(err),
			)
		}
	}
	noContent(c)
}
