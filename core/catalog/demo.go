package catalog

import (
	"fmt"
	"time"
)

// NewDemoStore returns a MemoryStore seeded with a small catalog: simple and
// variable products with variations and categories, users and orders.
// It backs `--source demo` and the package tests across the module.
func NewDemoStore(now time.Time) *MemoryStore {
	s := NewMemoryStore()

	s.AddTerm(Term{ID: 1, Taxonomy: "product_cat", Name: "Clothing", Slug: "clothing", URL: "https://shop.test/c/clothing"})
	s.AddTerm(Term{ID: 2, Taxonomy: "product_cat", Name: "Shirts", Slug: "shirts", ParentID: 1, URL: "https://shop.test/c/clothing/shirts"})
	s.AddTerm(Term{ID: 3, Taxonomy: "product_cat", Name: "Accessories", Slug: "accessories", URL: "https://shop.test/c/accessories"})
	s.AddTerm(Term{ID: 10, Taxonomy: "product_tag", Name: "summer", Slug: "summer"})
	s.AddTerm(Term{ID: 11, Taxonomy: "product_tag", Name: "cotton", Slug: "cotton"})

	s.AddAttachment(100, "https://shop.test/img/shirt.jpg")
	s.AddAttachment(101, "https://shop.test/img/shirt-back.jpg")
	s.AddAttachment(102, "https://shop.test/img/shirt-side.jpg")

	s.AddProduct(Product{
		ID: 1, Type: ProductTypeSimple, Status: StatusPublish, Name: "Canvas Cap", SKU: "CAP-1",
		Permalink: "https://shop.test/p/canvas-cap", ShortDescription: "A cap", Description: "A canvas cap.",
		CreatedAt: now.AddDate(0, 0, -5), ModifiedAt: now.AddDate(0, 0, -1),
	}, 3, 10)
	s.SetMeta(KindProduct, 1, "_price", "12.50")

	s.AddProduct(Product{
		ID: 2, Type: ProductTypeVariable, Status: StatusPublish, Name: "Linen Shirt", SKU: "SHIRT",
		Permalink: "https://shop.test/p/linen-shirt", ImageID: 100,
		CreatedAt: now.AddDate(0, 0, -10), ModifiedAt: now.AddDate(0, 0, -2),
	}, 2, 10, 11)
	s.SetMeta(KindProduct, 2, "_product_image_gallery", "101,102")
	s.SetMeta(KindProduct, 2, "_price", "30")
	s.SetMeta(KindProduct, 2, "_attributes", map[string]any{"size": "L"})
	for i, size := range []string{"S", "M", "L"} {
		id := int64(20 + i)
		s.AddProduct(Product{
			ID: id, ParentID: 2, Type: ProductTypeVariation, Status: StatusPublish,
			Name: "Linen Shirt - " + size, SKU: "SHIRT-" + size,
			CreatedAt: now.AddDate(0, 0, -10), ModifiedAt: now.AddDate(0, 0, -2),
		})
		s.SetMeta(KindProduct, id, "attribute_size", size)
	}

	s.AddProduct(Product{
		ID: 3, Type: ProductTypeSimple, Status: "draft", Name: "Wool Scarf", SKU: "SCARF",
		CreatedAt: now.AddDate(0, 0, -45), ModifiedAt: now.AddDate(0, 0, -45),
	}, 3)
	s.AddProduct(Product{ID: 4, Type: ProductTypeSimple, Status: "trash", Name: "Old Belt", CreatedAt: now.AddDate(0, 0, -3)})

	s.AddUser(User{ID: 1, Login: "admin", Email: "admin@shop.test", Roles: []string{"administrator"}, RegisteredAt: now.AddDate(-1, 0, 0)})
	s.SetMeta(KindUser, 1, "first_name", "Ada")
	s.SetMeta(KindUser, 1, "last_name", "Lovelace")
	s.AddUser(User{ID: 2, Login: "jdoe", Email: "jdoe@shop.test", Roles: []string{"customer"}, RegisteredAt: now.AddDate(0, 0, -7)})
	s.SetMeta(KindUser, 2, "first_name", "Jane")
	s.SetMeta(KindUser, 2, "billing_city", "Lyon")
	s.AddUser(User{ID: 3, Login: "manager", Email: "m@shop.test", Roles: []string{"shop_manager", "customer"}, RegisteredAt: now.AddDate(0, 0, -20)})

	for i := int64(1); i <= 3; i++ {
		status := []string{"wc-completed", "wc-processing", "wc-on-hold"}[i-1]
		s.AddOrder(Order{
			ID: 100 + i, Number: fmt.Sprintf("%d", 100+i), Status: status, CreatedAt: now.AddDate(0, 0, -int(i)),
			CustomerID: 2, Currency: "EUR", Total: "42.00", Subtotal: "35.00", TotalTax: "7.00",
			ShippingTotal: "0.00", ShippingTax: "0.00", DiscountTotal: "0.00",
			PaymentMethod: "card", PaymentMethodTitle: "Credit card",
			Billing:  Address{FirstName: "Jane", LastName: "Doe", City: "Lyon", Country: "FR", Email: "jdoe@shop.test"},
			Shipping: Address{FirstName: "Jane", LastName: "Doe", City: "Lyon", Country: "FR"},
		}, []LineItem{{Name: "Canvas Cap", Quantity: int(i)}, {Name: "Linen Shirt - M", Quantity: 1}},
			[]Note{{Content: "Order placed", CreatedAt: now.AddDate(0, 0, -int(i))}})
		s.SetMeta(KindOrder, 100+i, "_edit_lock", "1:1")
		s.SetMeta(KindOrder, 100+i, "_customer_ip", "127.0.0.1")
	}

	return s
}
