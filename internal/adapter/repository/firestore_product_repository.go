package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/pkg/errors"
	"marketsync/pkg/stream"
)

type firestoreProductRepository struct {
	client *firestore.Client
}

func NewFirestoreProductRepository(client *firestore.Client) repository.ProductRepository {
	return &firestoreProductRepository{
		client: client,
	}
}

func (r *firestoreProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if product.ID == "" {
		product.ID = r.client.Collection("products").NewDoc().ID
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now()
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	_, err := r.client.Collection("products").Doc(product.ID).Set(ctx, product)
	if err != nil {
		return errors.Store("Failed to create product", err)
	}
	return nil
}

func (r *firestoreProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	return getDoc(ctx, r.client.Collection("products").Doc(id), decodeProduct, "product")
}

func (r *firestoreProductRepository) Watch(ctx context.Context, filter repository.ProductFilter) *stream.Stream[[]*entity.Product] {
	query := r.client.Collection("products").Query

	if filter.Category != "" {
		query = query.Where("category", "==", string(filter.Category))
	}
	if filter.SellerID != "" {
		query = query.Where("sellerId", "==", filter.SellerID)
	}
	if filter.MinPrice != nil {
		query = query.Where("price", ">=", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price", "<=", *filter.MaxPrice)
	}

	// An inequality filter forces the first ordering onto the same field;
	// callers re-sort by createdAt.
	if filter.HasPriceRange() {
		query = query.OrderBy("price", firestore.Asc)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	return watchQuery(ctx, query, decodeProduct, "products")
}

func (r *firestoreProductRepository) Update(ctx context.Context, id string, update entity.ProductUpdate) error {
	var updates []firestore.Update
	if update.Name != nil {
		updates = append(updates, firestore.Update{Path: "name", Value: *update.Name})
	}
	if update.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *update.Description})
	}
	if update.Price != nil {
		updates = append(updates, firestore.Update{Path: "price", Value: *update.Price})
	}
	if update.Category != nil {
		updates = append(updates, firestore.Update{Path: "category", Value: string(*update.Category)})
	}
	if update.Images != nil {
		updates = append(updates, firestore.Update{Path: "images", Value: update.Images})
	}
	if update.Location != nil {
		updates = append(updates, firestore.Update{Path: "location", Value: *update.Location})
	}
	if update.IsSponsored != nil {
		updates = append(updates, firestore.Update{Path: "isSponsored", Value: *update.IsSponsored})
	}
	if len(updates) == 0 {
		return nil
	}

	if _, err := r.client.Collection("products").Doc(id).Update(ctx, updates); err != nil {
		return errors.Store("Failed to update product", err)
	}
	return nil
}

func (r *firestoreProductRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	_, err := r.client.Collection("products").Doc(id).Update(ctx, []firestore.Update{
		{Path: "rating", Value: rating},
	})
	if err != nil {
		return errors.Store("Failed to update product rating", err)
	}
	return nil
}

func (r *firestoreProductRepository) AddImage(ctx context.Context, id, url string) error {
	_, err := r.client.Collection("products").Doc(id).Update(ctx, []firestore.Update{
		{Path: "images", Value: firestore.ArrayUnion(url)},
	})
	if err != nil {
		return errors.Store("Failed to attach product image", err)
	}
	return nil
}

func (r *firestoreProductRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("products").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Store("Failed to delete product", err)
	}
	return nil
}
