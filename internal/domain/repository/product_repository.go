package repository

import (
	"context"

	"marketsync/internal/domain/entity"
	"marketsync/pkg/stream"
)

// ProductFilter holds the predicates the store can evaluate itself.
type ProductFilter struct {
	Category entity.Category
	SellerID string
	MinPrice *float64
	MaxPrice *float64
}

func (f ProductFilter) HasPriceRange() bool {
	return f.MinPrice != nil || f.MaxPrice != nil
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	// GetByID returns nil, nil when the product does not exist.
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// Watch re-pushes the full matching set on every change.
	Watch(ctx context.Context, filter ProductFilter) *stream.Stream[[]*entity.Product]
	Update(ctx context.Context, id string, update entity.ProductUpdate) error
	UpdateRating(ctx context.Context, id string, rating float64) error
	AddImage(ctx context.Context, id, url string) error
	Delete(ctx context.Context, id string) error
}
