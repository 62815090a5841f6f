package cart

import (
	"context"
	"time"

	"example.com/shop/crm"
)

type OrderStatus string

const (
	StatusOpen      OrderStatus = "open"
	StatusSubmitted OrderStatus = "submitted"
	StatusShipped   OrderStatus = "shipped"
)

// Order is a customer purchase.
//
//meta:label Purchase order
//meta:symbol PO
type Order struct {
	ID       int64         `meta:"id"`
	Status   OrderStatus   `json:"status"`
	PlacedAt time.Time     `meta:"insertable=false,updatable=false"`
	Customer *crm.Customer `meta:"many_to_one,required"`
	Items    []*OrderItem  `meta:"one_to_many,mapped_by=order,orphan_removal"`
	Notes    string        `meta:"hidden,label=Internal notes"`
	Scratch  string        `meta:"-"`
	internal int
}

//meta:action
func (o *Order) AddItem(product *Product, quantity int) {}

//meta:action
func (o *Order) Submit() {}

//meta:query
func (o Order) Total() float64 { return 0 }

//meta:action
//meta:impl
func (o *Order) Audit() {}

func (o *Order) String() string { return "" }

func (o *Order) reprice() {}

type OrderItem struct {
	ID       int64    `meta:"id"`
	Order    *Order   `meta:"many_to_one"`
	Product  *Product `meta:"many_to_one,optional=false"`
	Quantity int
}

type OrderService interface {
	//meta:query
	ByStatus(ctx context.Context, status OrderStatus) ([]*Order, error)
	Checkout(ctx context.Context, order *Order) error
	helper()
}
