package model

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customer_name"`
	Rating       int       `json:"rating"`
	ReviewText   string    `json:"review_text"`
	CreatedAt    time.Time `json:"created_at"`
	IsApproved   bool      `json:"is_approved"`
}

// NewReview is a public submission. Approval is decided by the backend.
type NewReview struct {
	CustomerName string `json:"customer_name"`
	Rating       int    `json:"rating"`
	ReviewText   string `json:"review_text"`
}

// ReviewFilter narrows a review read.
type ReviewFilter struct {
	ApprovedOnly bool
}

// AverageRating is the mean rating, 0 for an empty list.
func AverageRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
