package repository

import (
	"context"

	"marketsync/internal/domain/entity"
)

type ReviewRepository interface {
	Create(ctx context.Context, productID string, review *entity.Review) error
	// ListByProduct returns every review of the product, newest first.
	ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error)
}
