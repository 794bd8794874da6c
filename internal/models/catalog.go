package models

import "github.com/shopspring/decimal"

// FoodItem is a menu entry
type FoodItem struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	Description string          `json:"description,omitempty"`
	CreatedAt   Timestamp       `json:"created_at,omitempty"`
}

// AddFoodItemRequest creates a menu entry. Price travels as a JSON number.
type AddFoodItemRequest struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"image_url"`
	Description string  `json:"description"`
}

// RemoveFoodItemRequest deletes a menu entry
type RemoveFoodItemRequest struct {
	ID int `json:"id"`
}

// MessageResponse is a plain success/message body
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
