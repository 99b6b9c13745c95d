package entity

import (
	"time"
)

type Category string

const (
	CategoryRealEstate  Category = "real_estate"
	CategoryLogistics   Category = "logistics"
	CategoryClothing    Category = "clothing"
	CategoryElectronics Category = "electronics"
	CategoryHome        Category = "home"
	CategoryServices    Category = "services"
	CategoryVehicles    Category = "vehicles"
	CategoryOther       Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRealEstate, CategoryLogistics, CategoryClothing, CategoryElectronics,
		CategoryHome, CategoryServices, CategoryVehicles, CategoryOther:
		return true
	}
	return false
}

type Product struct {
	ID          string   `json:"id" firestore:"-"`
	SellerID    string   `json:"seller_id" firestore:"sellerId" validate:"required"`
	Name        string   `json:"name" firestore:"name" validate:"required"`
	Description string   `json:"description" firestore:"description"`
	Price       float64  `json:"price" firestore:"price" validate:"gte=0"`
	Category    Category `json:"category" firestore:"category" validate:"required,product_category"`
	Images      []string `json:"images" firestore:"images"`

	// Rating is the mean of all review ratings, recomputed on every review insert.
	Rating float64 `json:"rating" firestore:"rating" validate:"gte=0,lte=5"`

	Location    Location  `json:"location" firestore:"location"`
	IsSponsored bool      `json:"is_sponsored" firestore:"isSponsored"`
	CreatedAt   time.Time `json:"created_at" firestore:"createdAt" validate:"required"`
}

// ProductUpdate lists the mutable fields; nil means unchanged. CreatedAt and
// Rating are deliberately absent.
type ProductUpdate struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string   `json:"description,omitempty"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gte=0"`
	Category    *Category `json:"category,omitempty" validate:"omitempty,product_category"`
	Images      []string  `json:"images,omitempty"`
	Location    *Location `json:"location,omitempty"`
	IsSponsored *bool     `json:"is_sponsored,omitempty"`
}

func (u ProductUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Price == nil && u.Category == nil &&
		u.Images == nil && u.Location == nil && u.IsSponsored == nil
}
