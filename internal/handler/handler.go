package handler

import (
	"mime/multipart"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/storefront/internal/domain/apperr"
	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
	"github.com/xenking/storefront/internal/domain/shipping"
)

// ImageStore persists uploaded product images.
type ImageStore interface {
	Save(fh *multipart.FileHeader) (string, error)
	Remove(path string) error
}

// Handler serves the storefront REST API, delegating business logic to the
// entity services.
type Handler struct {
	products  *product.Service
	customers *customer.Service
	orders    *order.Service
	discounts *discount.Service
	shipping  *shipping.Service
	images    ImageStore
}

// Services groups the entity services the Handler delegates to.
type Services struct {
	Products  *product.Service
	Customers *customer.Service
	Orders    *order.Service
	Discounts *discount.Service
	Shipping  *shipping.Service
}

// NewHandler constructs a Handler.
func NewHandler(s Services, images ImageStore) *Handler {
	useJSONFieldNames()
	return &Handler{
		products:  s.Products,
		customers: s.Customers,
		orders:    s.Orders,
		discounts: s.Discounts,
		shipping:  s.Shipping,
		images:    images,
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	customers := r.Group("/customers")
	customers.GET("", h.ListCustomers)
	customers.GET("/:id", h.GetCustomer)

	discounts := r.Group("/discounts")
	discounts.POST("", h.CreateDiscount)
	discounts.GET("", h.ListDiscounts)
	discounts.GET("/:id", h.GetDiscount)
	discounts.PATCH("/:id", h.UpdateDiscount)
	discounts.DELETE("/:id", h.DeleteDiscount)

	orders := r.Group("/orders")
	orders.POST("", h.CreateOrder)
	orders.GET("", h.ListOrders)
	orders.GET("/:id", h.GetOrder)
	orders.PATCH("/:id", h.UpdateOrderStatus)

	products := r.Group("/products")
	products.POST("", h.CreateProduct)
	products.GET("", h.ListProducts)
	products.GET("/:id", h.GetProduct)
	products.PATCH("/:id", h.UpdateProduct)
	products.DELETE("/:id", h.DeleteProduct)

	prices := r.Group("/shipping-prices")
	prices.GET("", h.ListShippingPrices)
	prices.GET("/:id", h.GetShippingPrice)
	prices.PATCH("/:id", h.UpdateShippingPrice)
}

// listQuery holds the pagination and projection parameters shared by list
// endpoints.
type listQuery struct {
	Page     *int   `form:"page"`
	Limit    *int   `form:"limit"`
	SortBy   string `form:"sortBy"`
	SortType string `form:"sortType"`
	Fields   string `form:"fields"`
}

func bindList(c *gin.Context) (query.Options, query.Fields, error) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return query.Options{}, nil, bindingError(err)
	}
	opts, err := query.NewOptions(q.Page, q.Limit, q.SortBy, q.SortType)
	if err != nil {
		return query.Options{}, nil, err
	}
	return opts, query.ParseFields(q.Fields), nil
}

func bindFields(c *gin.Context) query.Fields {
	return query.ParseFields(c.Query("fields"))
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.BadRequestf("invalid id %q", c.Param("id"))
	}
	return id, nil
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

var registerTagName sync.Once

// useJSONFieldNames makes validation errors name fields as clients send them.
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}
