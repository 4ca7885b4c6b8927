package catalog

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies an exportable entity kind.
type Kind string

const (
	KindProduct Kind = "product"
	KindUser    Kind = "user"
	KindOrder   Kind = "order"
)

// Kinds lists every supported entity kind.
var Kinds = []Kind{KindProduct, KindUser, KindOrder}

// ParseKind validates and normalizes an entity kind name.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

const (
	ProductTypeSimple    = "simple"
	ProductTypeVariable  = "variable"
	ProductTypeVariation = "variation"

	StatusPublish = "publish"
)

// hiddenStatuses never match an unrestricted status filter.
var hiddenStatuses = map[string]bool{"trash": true, "auto-draft": true}

// listedProductStatuses are the statuses whose products contribute to the type options.
var listedProductStatuses = map[string]bool{"publish": true, "draft": true, "private": true, "pending": true}

// Product is a catalog product or a variation of a variable product.
type Product struct {
	ID               int64
	ParentID         int64
	Type             string
	Status           string
	Name             string
	SKU              string
	Permalink        string
	ShortDescription string
	Description      string
	ImageID          int64
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// IsVariation reports whether p is a child variation record.
func (p *Product) IsVariation() bool {
	return p.Type == ProductTypeVariation
}

// User is a registered store account.
type User struct {
	ID           int64
	Login        string
	Email        string
	Roles        []string
	RegisteredAt time.Time
}

// Address holds one billing or shipping contact block of an order.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2"`
	City      string `json:"city"`
	State     string `json:"state"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Order is a placed store order. Monetary amounts are kept as decimal strings.
type Order struct {
	ID                 int64
	Number             string
	Status             string
	CreatedAt          time.Time
	CustomerID         int64
	Billing            Address
	Shipping           Address
	PaymentMethod      string
	PaymentMethodTitle string
	TransactionID      string
	Total              string
	Subtotal           string
	TotalTax           string
	ShippingTotal      string
	ShippingTax        string
	DiscountTotal      string
	Currency           string
}

// LineItem is one purchased line of an order.
type LineItem struct {
	Name     string
	Quantity int
}

// Note is an order note.
type Note struct {
	Content   string
	CreatedAt time.Time
}

// Term is a taxonomy term attached to products (categories, tags, attributes).
type Term struct {
	ID       int64
	Taxonomy string
	Name     string
	Slug     string
	ParentID int64
	URL      string
}

// Variation pairs a variation id with its parent product id.
type Variation struct {
	ID       int64
	ParentID int64
}

// Option is a selectable filter value with a human label and optional count.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count,omitempty"`
}
