package usecase

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"marketsync/internal/domain/entity"
	"marketsync/internal/domain/repository"
	"marketsync/internal/domain/service"
	"marketsync/pkg/errors"
	"marketsync/pkg/geo"
	"marketsync/pkg/logger"
	"marketsync/pkg/stream"
)

// CatalogIndex serves the product catalog and keeps Product.rating in step
// with the product's reviews.
type CatalogIndex struct {
	productRepo repository.ProductRepository
	reviewRepo  repository.ReviewRepository
	images      service.ImageStore
}

func NewCatalogIndex(
	productRepo repository.ProductRepository,
	reviewRepo repository.ReviewRepository,
	images service.ImageStore,
) *CatalogIndex {
	return &CatalogIndex{
		productRepo: productRepo,
		reviewRepo:  reviewRepo,
		images:      images,
	}
}

// GeoFilter keeps products within RadiusKm of a point. The store cannot
// evaluate it, so it runs in memory on every snapshot.
type GeoFilter struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radius_km"`
}

type ProductFilters struct {
	Category entity.Category `json:"category"`
	SellerID string          `json:"seller_id"`
	MinPrice *float64        `json:"min_price"`
	MaxPrice *float64        `json:"max_price"`
	Location *GeoFilter      `json:"location"`
}

func (f ProductFilters) validate() error {
	if f.Category != "" && !f.Category.Valid() {
		return errors.Validation(fmt.Sprintf("unknown category %q", f.Category), nil)
	}
	for _, p := range []*float64{f.MinPrice, f.MaxPrice} {
		if p != nil && (math.IsNaN(*p) || *p < 0) {
			return errors.Validation("price bounds must be non-negative numbers", nil)
		}
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return errors.Validation("min price must not exceed max price", nil)
	}
	if loc := f.Location; loc != nil {
		if !(geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude}).Valid() {
			return errors.Validation("location coordinates are out of range", nil)
		}
		if math.IsNaN(loc.RadiusKm) || loc.RadiusKm < 0 {
			return errors.Validation("radius must be a non-negative number", nil)
		}
	}
	return nil
}

// ListProducts streams products matching filters, newest first. Category,
// seller and price run as store predicates; the radius filter is applied to
// each full snapshot after it arrives.
func (c *CatalogIndex) ListProducts(ctx context.Context, filters ProductFilters) (*stream.Stream[[]*entity.Product], error) {
	if err := filters.validate(); err != nil {
		return nil, err
	}

	src := c.productRepo.Watch(ctx, repository.ProductFilter{
		Category: filters.Category,
		SellerID: filters.SellerID,
		MinPrice: filters.MinPrice,
		MaxPrice: filters.MaxPrice,
	})

	return stream.Map(src, func(products []*entity.Product) ([]*entity.Product, error) {
		if filters.Location != nil {
			products = FilterByDistance(products, *filters.Location)
		}
		sortNewestFirst(products)
		return products, nil
	}), nil
}

// FilterByDistance keeps the products whose location lies within the radius.
func FilterByDistance(products []*entity.Product, filter GeoFilter) []*entity.Product {
	origin := geo.Point{Latitude: filter.Latitude, Longitude: filter.Longitude}
	kept := make([]*entity.Product, 0, len(products))
	for _, p := range products {
		at := geo.Point{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
		if geo.Within(origin, at, filter.RadiusKm) {
			kept = append(kept, p)
		}
	}
	return kept
}

func sortNewestFirst(products []*entity.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

// GetProductByID returns nil, nil when the product does not exist.
func (c *CatalogIndex) GetProductByID(ctx context.Context, id string) (*entity.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	return c.productRepo.GetByID(ctx, id)
}

type ProductDetail struct {
	Product *entity.Product  `json:"product"`
	Reviews []*entity.Review `json:"reviews"`
}

// GetProductDetail loads a product and its reviews concurrently. It returns
// nil, nil when the product does not exist.
func (c *CatalogIndex) GetProductDetail(ctx context.Context, id string) (*ProductDetail, error) {
	var detail ProductDetail

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		product, err := c.productRepo.GetByID(gctx, id)
		detail.Product = product
		return err
	})
	g.Go(func() error {
		reviews, err := c.reviewRepo.ListByProduct(gctx, id)
		detail.Reviews = reviews
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if detail.Product == nil {
		return nil, nil
	}
	return &detail, nil
}

type CreateProductInput struct {
	SellerID    string          `json:"seller_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       float64         `json:"price" validate:"gte=0"`
	Category    entity.Category `json:"category" validate:"required,product_category"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
	Location    entity.Location `json:"location"`
	IsSponsored bool            `json:"is_sponsored"`
}

func (c *CatalogIndex) CreateProduct(ctx context.Context, input CreateProductInput) (*entity.Product, error) {
	if err := entity.Validate(input); err != nil {
		return nil, errors.Validation("Invalid product data", err)
	}

	product := &entity.Product{
		SellerID:    input.SellerID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Images:      input.Images,
		Location:    input.Location,
		IsSponsored: input.IsSponsored,
		CreatedAt:   time.Now(),
	}
	if err := c.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (c *CatalogIndex) UpdateProduct(ctx context.Context, id string, update entity.ProductUpdate) error {
	if err := entity.Validate(update); err != nil {
		return errors.Validation("Invalid product update", err)
	}
	if update.Empty() {
		return nil
	}
	return c.productRepo.Update(ctx, id, update)
}

func (c *CatalogIndex) DeleteProduct(ctx context.Context, id string) error {
	return c.productRepo.Delete(ctx, id)
}

type ReviewInput struct {
	UserID  string   `json:"user_id" validate:"required"`
	Rating  int      `json:"rating" validate:"min=1,max=5"`
	Comment string   `json:"comment"`
	Images  []string `json:"images" validate:"omitempty,dive,url"`
}

// AddReview appends the review and then rewrites the product rating as the
// mean over all of the product's reviews. The re-read and the write are not
// transactional: two concurrent reviewers can each compute a mean that
// misses the other's review, and the last write wins. The reviews
// themselves are never lost.
func (c *CatalogIndex) AddReview(ctx context.Context, productID string, input ReviewInput) (*entity.Review, error) {
	if err := entity.Validate(input); err != nil {
		return nil, errors.Validation("Invalid review", err)
	}

	review := &entity.Review{
		UserID:    input.UserID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		Images:    input.Images,
		CreatedAt: time.Now(),
	}
	if err := c.reviewRepo.Create(ctx, productID, review); err != nil {
		return nil, err
	}

	product, err := c.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		logger.Warn("Review %s added to missing product %s; rating not recomputed", review.ID, productID)
		return review, nil
	}

	reviews, err := c.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	rating, ok := entity.AverageRating(reviews)
	if !ok {
		return review, nil
	}
	if err := c.productRepo.UpdateRating(ctx, productID, rating); err != nil {
		return nil, err
	}

	logger.Debug("Product %s rating is now %.2f over %d reviews", productID, rating, len(reviews))
	return review, nil
}

func (c *CatalogIndex) GetProductReviews(ctx context.Context, productID string) ([]*entity.Review, error) {
	return c.reviewRepo.ListByProduct(ctx, productID)
}

// AddProductImage uploads an image and appends its URL to the product.
func (c *CatalogIndex) AddProductImage(ctx context.Context, productID string, image io.Reader, contentType string) (string, error) {
	if c.images == nil {
		return "", errors.Internal("Image storage is not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", errors.Validation(fmt.Sprintf("unsupported content type %q", contentType), nil)
	}

	product, err := c.productRepo.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", errors.Validation("product does not exist", nil)
	}

	url, err := c.images.UploadImage(ctx, image, contentType, "products/"+productID)
	if err != nil {
		return "", errors.Store("Failed to upload image", err)
	}
	if err := c.productRepo.AddImage(ctx, productID, url); err != nil {
		return "", err
	}
	return url, nil
}
