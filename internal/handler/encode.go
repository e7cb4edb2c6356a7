package handler

import (
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/customer"
	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/query"
	"github.com/xenking/storefront/internal/domain/shipping"
)

func money(e *jx.Encoder, d decimal.Decimal) {
	e.Raw([]byte(d.String()))
}

func timestamp(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}

// object writes a JSON object containing only the fields selected by f.
// id is always written.
type object struct {
	e *jx.Encoder
	f query.Fields
}

func (o object) field(name string, write func(e *jx.Encoder)) {
	if name != "id" && !o.f.Has(name) {
		return
	}
	o.e.FieldStart(name)
	write(o.e)
}

func encodeList[T any](e *jx.Encoder, items []T, encode func(*jx.Encoder, T)) {
	e.ArrStart()
	for _, item := range items {
		encode(e, item)
	}
	e.ArrEnd()
}

func encodeProduct(e *jx.Encoder, p product.Product, f query.Fields) {
	o := object{e: e, f: f}
	e.ObjStart()
	o.field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
	o.field("title", func(e *jx.Encoder) { e.Str(p.Title) })
	o.field("price", func(e *jx.Encoder) { money(e, p.Price) })
	o.field("description", func(e *jx.Encoder) { e.Str(p.Description) })
	o.field("image", func(e *jx.Encoder) { e.Str(p.Image) })
	o.field("categories", func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range p.Categories {
			e.Str(c)
		}
		e.ArrEnd()
	})
	o.field("quantity", func(e *jx.Encoder) { e.Int(p.Quantity) })
	o.field("createdAt", func(e *jx.Encoder) { timestamp(e, p.CreatedAt) })
	o.field("updatedAt", func(e *jx.Encoder) { timestamp(e, p.UpdatedAt) })
	e.ObjEnd()
}

func encodeDiscount(e *jx.Encoder, d discount.Discount, f query.Fields) {
	o := object{e: e, f: f}
	e.ObjStart()
	o.field("id", func(e *jx.Encoder) { e.Int64(d.ID) })
	o.field("code", func(e *jx.Encoder) { e.Str(d.Code) })
	o.field("value", func(e *jx.Encoder) { money(e, d.Value) })
	o.field("valueType", func(e *jx.Encoder) { e.Str(string(d.ValueType)) })
	o.field("active", func(e *jx.Encoder) { e.Bool(d.Active) })
	o.field("createdAt", func(e *jx.Encoder) { timestamp(e, d.CreatedAt) })
	o.field("updatedAt", func(e *jx.Encoder) { timestamp(e, d.UpdatedAt) })
	e.ObjEnd()
}

func encodeShippingPrice(e *jx.Encoder, p shipping.Price, f query.Fields) {
	o := object{e: e, f: f}
	e.ObjStart()
	o.field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
	o.field("wilaya", func(e *jx.Encoder) { e.Str(p.Wilaya) })
	o.field("price", func(e *jx.Encoder) { money(e, p.Price) })
	o.field("createdAt", func(e *jx.Encoder) { timestamp(e, p.CreatedAt) })
	o.field("updatedAt", func(e *jx.Encoder) { timestamp(e, p.UpdatedAt) })
	e.ObjEnd()
}

func encodeCustomerFields(e *jx.Encoder, c *customer.Customer) {
	e.FieldStart("id")
	e.Int64(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("email")
	if c.Email != nil {
		e.Str(*c.Email)
	} else {
		e.Null()
	}
	e.FieldStart("phone")
	e.Str(c.Phone)
	e.FieldStart("address")
	e.Str(c.Address)
	e.FieldStart("city")
	e.Str(c.City)
	e.FieldStart("wilaya")
	e.Str(c.Wilaya)
	e.FieldStart("createdAt")
	timestamp(e, c.CreatedAt)
	e.FieldStart("updatedAt")
	timestamp(e, c.UpdatedAt)
}

// encodeCustomer writes a customer including their orders.
func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.ObjStart()
	encodeCustomerFields(e, &c)
	e.FieldStart("orders")
	e.ArrStart()
	for _, o := range c.Orders {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(o.ID)
		e.FieldStart("total")
		money(e, o.Total)
		e.FieldStart("status")
		e.Str(o.Status)
		e.FieldStart("createdAt")
		timestamp(e, o.CreatedAt)
		e.FieldStart("updatedAt")
		timestamp(e, o.UpdatedAt)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// encodeOrder writes an order with its customer and line items.
func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	e.FieldStart("total")
	money(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("customerId")
	e.Int64(o.CustomerID)
	e.FieldStart("createdAt")
	timestamp(e, o.CreatedAt)
	e.FieldStart("updatedAt")
	timestamp(e, o.UpdatedAt)

	e.FieldStart("customer")
	if o.Customer != nil {
		e.ObjStart()
		encodeCustomerFields(e, o.Customer)
		e.ObjEnd()
	} else {
		e.Null()
	}

	e.FieldStart("products")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("id")
		e.Int64(item.ID)
		e.FieldStart("orderId")
		e.Int64(item.OrderID)
		e.FieldStart("productId")
		e.Int64(item.ProductID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		if item.Product != nil {
			e.FieldStart("product")
			encodeProduct(e, *item.Product, nil)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}
