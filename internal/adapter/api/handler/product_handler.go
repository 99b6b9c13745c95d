package handler

import (
	"context"

	"github.com/labstack/echo/v4"

	"marketsync/internal/adapter/api/middleware"
	"marketsync/internal/domain/entity"
	"marketsync/internal/usecase"
	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
	"marketsync/pkg/response"
)

type ProductHandler struct {
	catalog *usecase.CatalogIndex
}

func NewProductHandler(catalog *usecase.CatalogIndex) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
	}
}

type createProductRequest struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Price       float64         `json:"price" validate:"gte=0"`
	Category    entity.Category `json:"category" validate:"required,product_category"`
	Images      []string        `json:"images" validate:"omitempty,dive,url"`
	Location    entity.Location `json:"location"`
	IsSponsored bool            `json:"is_sponsored"`
}

type reviewRequest struct {
	Rating  int      `json:"rating" validate:"min=1,max=5"`
	Comment string   `json:"comment"`
	Images  []string `json:"images" validate:"omitempty,dive,url"`
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req createProductRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	product, err := h.catalog.CreateProduct(c.Request().Context(), usecase.CreateProductInput{
		SellerID:    middleware.UID(c),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      req.Images,
		Location:    req.Location,
		IsSponsored: req.IsSponsored,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, product)
}

// GetProduct returns the product with its reviews.
func (h *ProductHandler) GetProduct(c echo.Context) error {
	detail, err := h.catalog.GetProductDetail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}
	if detail == nil {
		return response.Error(c, errors.NotFound("Product", nil))
	}
	return response.Success(c, detail)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id := c.Param("id")
	if err := h.requireOwner(c.Request().Context(), id, middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}

	var update entity.ProductUpdate
	if err := c.Bind(&update); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := h.catalog.UpdateProduct(c.Request().Context(), id, update); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"id": id})
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id := c.Param("id")
	if err := h.requireOwner(c.Request().Context(), id, middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}
	if err := h.catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"id": id})
}

func (h *ProductHandler) AddReview(c echo.Context) error {
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	review, err := h.catalog.AddReview(c.Request().Context(), c.Param("id"), usecase.ReviewInput{
		UserID:  middleware.UID(c),
		Rating:  req.Rating,
		Comment: req.Comment,
		Images:  req.Images,
	})
	if err != nil {
		return response.Error(c, err)
	}
	return response.Created(c, review)
}

// UploadImage takes a multipart "image" file and appends it to the product.
func (h *ProductHandler) UploadImage(c echo.Context) error {
	id := c.Param("id")
	if err := h.requireOwner(c.Request().Context(), id, middleware.UID(c)); err != nil {
		return response.Error(c, err)
	}

	file, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.BadRequest("image file is required", err))
	}
	src, err := file.Open()
	if err != nil {
		return response.Error(c, errors.BadRequest("Failed to read image", err))
	}
	defer src.Close()

	url, err := h.catalog.AddProductImage(c.Request().Context(), id, src, file.Header.Get("Content-Type"))
	if err != nil {
		logger.Error("UploadImage: product %s: %v", id, err)
		return response.Error(c, err)
	}
	return response.Created(c, map[string]string{"url": url})
}

func (h *ProductHandler) requireOwner(ctx context.Context, productID, uid string) error {
	product, err := h.catalog.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return errors.NotFound("Product", nil)
	}
	if product.SellerID != uid {
		return errors.Forbidden("Only the seller can modify this product", nil)
	}
	return nil
}
