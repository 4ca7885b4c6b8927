package mapping

import (
	"context"
	"strings"

	"github.com/fbz-tec/storexport/core/catalog"
)

// Standard field names shared by every kind.
const (
	FieldID = "ID"
)

// Product fields.
const (
	FieldParentID         = "Parent ID"
	FieldVariantOf        = "plytix_variant_of"
	FieldTitle            = "Title"
	FieldShortDescription = "Short Description"
	FieldDescription      = "Description"
	FieldFeaturedImage    = "Featured Image"
	FieldGalleryURLs      = "Product Gallery URLs"
	FieldCategories       = "Product Categories"
	FieldCategoryURL      = "Product Category URL"
	FieldPermalink        = "Permalink"
	FieldSKU              = "SKU"
	FieldProductType      = "Product type"
	FieldProductStatus    = "Product status"
)

const (
	// GalleryMetaKey holds a comma-separated list of attachment ids.
	GalleryMetaKey   = "_product_image_gallery"
	CategoryTaxonomy = "product_cat"

	categoryPathSeparator = " > "
	listSeparator         = ", "
	orderStatusPrefix     = "wc-"
)

// User fields.
const (
	FieldUsername         = "Username"
	FieldEmail            = "Email"
	FieldFirstName        = "First Name"
	FieldLastName         = "Last Name"
	FieldRole             = "Role"
	FieldRegistrationDate = "Registration Date"
)

// Order fields.
const (
	FieldOrderNumber        = "Order Number"
	FieldOrderStatus        = "Order Status"
	FieldOrderDate          = "Order Date"
	FieldCustomerID         = "Customer ID"
	FieldCustomerEmail      = "Customer Email"
	FieldCustomerFirstName  = "Customer First Name"
	FieldCustomerLastName   = "Customer Last Name"
	FieldPaymentMethod      = "Payment Method"
	FieldPaymentMethodTitle = "Payment Method Title"
	FieldTransactionID      = "Transaction ID"
	FieldOrderTotal         = "Order Total"
	FieldOrderSubtotal      = "Order Subtotal"
	FieldOrderTax           = "Order Tax"
	FieldOrderShipping      = "Order Shipping"
	FieldOrderShippingTax   = "Order Shipping Tax"
	FieldOrderDiscount      = "Order Discount"
	FieldOrderCurrency      = "Order Currency"
	FieldOrderItems         = "Order Items"
	FieldOrderNotes         = "Order Notes"
)

// accessor renders one standard field of a record of type T.
type accessor[T any] func(ctx context.Context, m *Mapper, rec *T) string

// registry maps field names to accessors, keeping declaration order for listings.
type registry[T any] struct {
	names []string
	byKey map[string]accessor[T]
}

func newRegistry[T any]() *registry[T] {
	return &registry[T]{byKey: make(map[string]accessor[T])}
}

func (r *registry[T]) add(name string, fn accessor[T]) *registry[T] {
	if _, dup := r.byKey[name]; !dup {
		r.names = append(r.names, name)
	}
	r.byKey[name] = fn
	return r
}

// lookup falls through to an empty-value accessor for unknown names.
func (r *registry[T]) lookup(name string) accessor[T] {
	if fn, ok := r.byKey[name]; ok {
		return fn
	}
	return func(context.Context, *Mapper, *T) string { return "" }
}

var productFields = newRegistry[catalog.Product]().
	add(FieldID, func(_ context.Context, m *Mapper, p *catalog.Product) string { return m.values.Format(p.ID) }).
	add(FieldParentID, func(_ context.Context, m *Mapper, p *catalog.Product) string {
		if !p.IsVariation() {
			return ""
		}
		return m.values.Format(p.ParentID)
	}).
	add(FieldVariantOf, func(ctx context.Context, m *Mapper, p *catalog.Product) string {
		if !p.IsVariation() {
			return ""
		}
		return m.parentSKU(ctx, p.ParentID)
	}).
	add(FieldTitle, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.Name }).
	add(FieldSKU, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.SKU }).
	add(FieldShortDescription, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.ShortDescription }).
	add(FieldDescription, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.Description }).
	add(FieldFeaturedImage, func(ctx context.Context, m *Mapper, p *catalog.Product) string {
		return m.attachmentURL(ctx, p.ImageID)
	}).
	add(FieldGalleryURLs, func(ctx context.Context, m *Mapper, p *catalog.Product) string { return m.gallery(ctx, p.ID) }).
	add(FieldCategories, func(ctx context.Context, m *Mapper, p *catalog.Product) string { return m.categoryPaths(ctx, p.ID) }).
	add(FieldCategoryURL, func(ctx context.Context, m *Mapper, p *catalog.Product) string { return m.categoryURLs(ctx, p.ID) }).
	add(FieldPermalink, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.Permalink }).
	add(FieldProductType, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.Type }).
	add(FieldProductStatus, func(_ context.Context, _ *Mapper, p *catalog.Product) string { return p.Status })

var userFields = newRegistry[catalog.User]().
	add(FieldID, func(_ context.Context, m *Mapper, u *catalog.User) string { return m.values.Format(u.ID) }).
	add(FieldUsername, func(_ context.Context, _ *Mapper, u *catalog.User) string { return u.Login }).
	add(FieldEmail, func(_ context.Context, _ *Mapper, u *catalog.User) string { return u.Email }).
	add(FieldFirstName, func(ctx context.Context, m *Mapper, u *catalog.User) string {
		return m.meta(ctx, catalog.KindUser, u.ID, "first_name")
	}).
	add(FieldLastName, func(ctx context.Context, m *Mapper, u *catalog.User) string {
		return m.meta(ctx, catalog.KindUser, u.ID, "last_name")
	}).
	add(FieldRole, func(_ context.Context, _ *Mapper, u *catalog.User) string { return strings.Join(u.Roles, listSeparator) }).
	add(FieldRegistrationDate, func(_ context.Context, m *Mapper, u *catalog.User) string { return m.values.Time(u.RegisteredAt) })

func orderString(get func(o *catalog.Order) string) accessor[catalog.Order] {
	return func(_ context.Context, _ *Mapper, o *catalog.Order) string { return get(o) }
}

var orderFields = newRegistry[catalog.Order]().
	add(FieldID, func(_ context.Context, m *Mapper, o *catalog.Order) string { return m.values.Format(o.ID) }).
	add(FieldOrderNumber, func(_ context.Context, m *Mapper, o *catalog.Order) string {
		if o.Number == "" {
			return m.values.Format(o.ID)
		}
		return o.Number
	}).
	add(FieldOrderStatus, orderString(func(o *catalog.Order) string { return strings.TrimPrefix(o.Status, orderStatusPrefix) })).
	add(FieldOrderDate, func(_ context.Context, m *Mapper, o *catalog.Order) string { return m.values.Time(o.CreatedAt) }).
	add(FieldCustomerID, func(_ context.Context, m *Mapper, o *catalog.Order) string { return m.values.Format(o.CustomerID) }).
	add(FieldCustomerEmail, orderString(func(o *catalog.Order) string { return o.Billing.Email })).
	add(FieldCustomerFirstName, orderString(func(o *catalog.Order) string { return o.Billing.FirstName })).
	add(FieldCustomerLastName, orderString(func(o *catalog.Order) string { return o.Billing.LastName })).
	add("Billing First Name", orderString(func(o *catalog.Order) string { return o.Billing.FirstName })).
	add("Billing Last Name", orderString(func(o *catalog.Order) string { return o.Billing.LastName })).
	add("Billing Company", orderString(func(o *catalog.Order) string { return o.Billing.Company })).
	add("Billing Address 1", orderString(func(o *catalog.Order) string { return o.Billing.Address1 })).
	add("Billing Address 2", orderString(func(o *catalog.Order) string { return o.Billing.Address2 })).
	add("Billing City", orderString(func(o *catalog.Order) string { return o.Billing.City })).
	add("Billing State", orderString(func(o *catalog.Order) string { return o.Billing.State })).
	add("Billing Postcode", orderString(func(o *catalog.Order) string { return o.Billing.Postcode })).
	add("Billing Country", orderString(func(o *catalog.Order) string { return o.Billing.Country })).
	add("Billing Email", orderString(func(o *catalog.Order) string { return o.Billing.Email })).
	add("Billing Phone", orderString(func(o *catalog.Order) string { return o.Billing.Phone })).
	add("Shipping First Name", orderString(func(o *catalog.Order) string { return o.Shipping.FirstName })).
	add("Shipping Last Name", orderString(func(o *catalog.Order) string { return o.Shipping.LastName })).
	add("Shipping Company", orderString(func(o *catalog.Order) string { return o.Shipping.Company })).
	add("Shipping Address 1", orderString(func(o *catalog.Order) string { return o.Shipping.Address1 })).
	add("Shipping Address 2", orderString(func(o *catalog.Order) string { return o.Shipping.Address2 })).
	add("Shipping City", orderString(func(o *catalog.Order) string { return o.Shipping.City })).
	add("Shipping State", orderString(func(o *catalog.Order) string { return o.Shipping.State })).
	add("Shipping Postcode", orderString(func(o *catalog.Order) string { return o.Shipping.Postcode })).
	add("Shipping Country", orderString(func(o *catalog.Order) string { return o.Shipping.Country })).
	add(FieldPaymentMethod, orderString(func(o *catalog.Order) string { return o.PaymentMethod })).
	add(FieldPaymentMethodTitle, orderString(func(o *catalog.Order) string { return o.PaymentMethodTitle })).
	add(FieldTransactionID, orderString(func(o *catalog.Order) string { return o.TransactionID })).
	add(FieldOrderTotal, orderString(func(o *catalog.Order) string { return o.Total })).
	add(FieldOrderSubtotal, orderString(func(o *catalog.Order) string { return o.Subtotal })).
	add(FieldOrderTax, orderString(func(o *catalog.Order) string { return o.TotalTax })).
	add(FieldOrderShipping, orderString(func(o *catalog.Order) string { return o.ShippingTotal })).
	add(FieldOrderShippingTax, orderString(func(o *catalog.Order) string { return o.ShippingTax })).
	add(FieldOrderDiscount, orderString(func(o *catalog.Order) string { return o.DiscountTotal })).
	add(FieldOrderCurrency, orderString(func(o *catalog.Order) string { return o.Currency })).
	add(FieldOrderItems, func(ctx context.Context, m *Mapper, o *catalog.Order) string { return m.lineItems(ctx, o.ID) }).
	add(FieldOrderNotes, func(ctx context.Context, m *Mapper, o *catalog.Order) string { return m.notes(ctx, o.ID) })

// StandardFields lists the standard field names of kind in catalog order.
func StandardFields(kind catalog.Kind) []string {
	var names []string
	switch kind {
	case catalog.KindProduct:
		names = productFields.names
	case catalog.KindUser:
		names = userFields.names
	case catalog.KindOrder:
		names = orderFields.names
	}
	return append([]string(nil), names...)
}

// NeedsVariations reports whether the selected fields require variation records.
func NeedsVariations(fields []string) bool {
	return containsString(fields, FieldParentID) || containsString(fields, FieldVariantOf)
}
