package model

import (
	"time"

	"github.com/tuanvumaihuynh/product-catalog/pkg/optional"
)

const (
	MinCreditRating = 0
	MaxCreditRating = 5
)

type Supplier struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ContactInfo  string    `json:"contact_info"`
	CreditRating int       `json:"credit_rating"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NewSupplier struct {
	Name         string `json:"name" validate:"required,min=2,max=100"`
	ContactInfo  string `json:"contact_info" validate:"required"`
	CreditRating *int   `json:"credit_rating" validate:"required"`
}

type SupplierPatch struct {
	Name         optional.Value[string] `json:"name" validate:"omitempty,min=2,max=100"`
	ContactInfo  optional.Value[string] `json:"contact_info" validate:"omitempty,min=1"`
	CreditRating optional.Value[int]    `json:"credit_rating"`
}

// ValidCreditRating reports whether r lies within the accepted bounds.
func ValidCreditRating(r int) bool {
	return r >= MinCreditRating && r <= MaxCreditRating
}
