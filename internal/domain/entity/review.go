package entity

import (
	"time"
)

// Review is immutable once created.
type Review struct {
	ID        string    `json:"id" firestore:"-"`
	ProductID string    `json:"product_id" firestore:"-"`
	UserID    string    `json:"user_id" firestore:"userId" validate:"required"`
	Rating    int       `json:"rating" firestore:"rating" validate:"min=1,max=5"`
	Comment   string    `json:"comment" firestore:"comment"`
	Images    []string  `json:"images,omitempty" firestore:"images,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt" validate:"required"`
}

// AverageRating returns the arithmetic mean of the review ratings, or false
// when there are none.
func AverageRating(reviews []*Review) (float64, bool) {
	if len(reviews) == 0 {
		return 0, false
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews)), true
}
