package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/jx"
)

// ListCustomers handles GET /customers. Each customer includes their orders.
func (h *Handler) ListCustomers(c *gin.Context) {
	opts, _, err := bindList(c)
	if err != nil {
		writeError(c, err)
		return
	}
	customers, err := h.customers.List(c.Request.Context(), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeList(e, customers, encodeCustomer)
	})
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		writeError(c, err)
		return
	}
	cust, err := h.customers.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, func(e *jx.Encoder) {
		encodeCustomer(e, *cust)
	})
}
