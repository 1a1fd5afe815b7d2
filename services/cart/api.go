package cart

import "context"

// PersistenceGateway mirrors the cart to durable storage.
// Load never fails: anything unreadable counts as "no saved cart".
// Save must not block on I/O; the caller never learns whether it succeeded.
//
//go:generate mockgen -source=api.go -package cart -destination gateway_mock.go PersistenceGateway
type PersistenceGateway interface {
	Load(c context.Context) []CartLine
	Save(c context.Context, lines []CartLine)
}

// ProductFinder resolves a product id into the catalog record that AddItem needs
type ProductFinder interface {
	FindProduct(c context.Context, productID string) (Product, bool, error)
}
