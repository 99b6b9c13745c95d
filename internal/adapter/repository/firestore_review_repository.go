package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
)

type firestoreReviewRepository struct {
	client *firestore.Client
}

func NewFirestoreReviewRepository(client *firestore.Client) repository.ReviewRepository {
	return &firestoreReviewRepository{
		client: client,
	}
}

func (r *firestoreReviewRepository) reviews(productID string) *firestore.CollectionRef {
	return r.client.Collection("products").Doc(productID).Collection("reviews")
}

func (r *firestoreReviewRepository) Create(ctx context.Context, productID string, review *entity.Review) error {
	ref := r.reviews(productID).NewDoc()
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}

	if _, err := ref.Create(ctx, review); err != nil {
		return errors.Store("Failed to add review", err)
	}

	review.ID = ref.ID
	review.ProductID = productID
	return nil
}

func (r *firestoreReviewRepository) ListByProduct(ctx context.Context, productID string) ([]*entity.Review, error) {
	query := r.reviews(productID).OrderBy("createdAt", firestore.Desc)
	return getAll(ctx, query, decodeReview, "reviews")
}
