package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MaxPrice mirrors the numeric(6,2) column the catalog is stored in
var MaxPrice = decimal.RequireFromString("9999.99")

// Category groups products on the menu
type Category struct {
	ID       int64     `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Products []Product `json:"products"`
}

// Product is a menu item. Inactive products cannot be ordered but remain
// referenced by historical order lines.
type Product struct {
	ID          int64           `json:"id" db:"id"`
	CategoryID  int64           `json:"category_id" db:"category_id"`
	Name        string          `json:"name" db:"name"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Active      bool            `json:"active" db:"active"`
	Description *string         `json:"description,omitempty" db:"description"`
	ImageRef    *string         `json:"image_ref,omitempty" db:"image_ref"`
}

// CreateCategoryRequest adds a menu category
type CreateCategoryRequest struct {
	Name string `json:"name"`
}

// Validate validates the create category request
func (req *CreateCategoryRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return ValidationError{Field: "name", Message: "category name is required"}
	}
	if len(req.Name) > 50 {
		return ValidationError{Field: "name", Message: "category name must not exceed 50 characters"}
	}
	return nil
}

// CreateProductRequest adds a product to a category
type CreateProductRequest struct {
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Active      *bool           `json:"active,omitempty"`
	Description *string         `json:"description,omitempty"`
	ImageRef    *string         `json:"image_ref,omitempty"`
}

// Validate validates the create product request
func (req *CreateProductRequest) Validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.CategoryID < 1 {
		return ValidationError{Field: "category_id", Message: "category is required"}
	}
	if req.Name == "" {
		return ValidationError{Field: "name", Message: "product name is required"}
	}
	if len(req.Name) > 100 {
		return ValidationError{Field: "name", Message: "product name must not exceed 100 characters"}
	}
	if !req.Price.IsPositive() {
		return ValidationError{Field: "price", Message: "price must be greater than 0"}
	}
	if !req.Price.Equal(req.Price.Round(2)) {
		return ValidationError{Field: "price", Message: "price must have at most 2 decimal places"}
	}
	if req.Price.GreaterThan(MaxPrice) {
		return ValidationError{Field: "price", Message: "price must not exceed " + MaxPrice.StringFixed(2)}
	}
	return nil
}

// IsActive returns the requested active flag, defaulting to true
func (req *CreateProductRequest) IsActive() bool {
	return req.Active == nil || *req.Active
}

// SetProductActiveRequest toggles whether a product can be ordered
type SetProductActiveRequest struct {
	Active *bool `json:"active"`
}

// Validate validates the set active request
func (req *SetProductActiveRequest) Validate() error {
	if req.Active == nil {
		return ValidationError{Field: "active", Message: "active flag is required"}
	}
	return nil
}
