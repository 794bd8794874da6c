package owner

import (
	"context"
	"net/url"
	"strings"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	log "github.com/sirupsen/logrus"
)

// API is the privileged part of the backend
type API interface {
	OrderSource
	AllReservations(ctx context.Context) ([]models.Reservation, error)
	Unreserve(ctx context.Context, table int) (string, error)
	FoodItems(ctx context.Context) ([]models.FoodItem, error)
	AddFoodItem(ctx context.Context, req models.AddFoodItemRequest) (string, error)
	RemoveFoodItem(ctx context.Context, id int) (string, error)
}

// Dashboard groups the owner operations
type Dashboard struct {
	api    API
	Orders *ClearedSinceFilter
}

// NewDashboard creates a Dashboard whose order list goes through orders
func NewDashboard(api API, orders *ClearedSinceFilter) *Dashboard {
	return &Dashboard{api: api, Orders: orders}
}

// Reservations lists every current reservation
func (d *Dashboard) Reservations(ctx context.Context) ([]models.Reservation, error) {
	return d.api.AllReservations(ctx)
}

// Unreserve releases table and returns the server message
func (d *Dashboard) Unreserve(ctx context.Context, table int) (string, error) {
	if !models.ValidTable(table) {
		return "", apperr.Invalid("table_number", "Unknown table")
	}
	msg, err := d.api.Unreserve(ctx, table)
	if err != nil {
		return "", err
	}
	log.WithField("table_number", table).Info("Table released by owner")
	return msg, nil
}

// FoodItems lists the menu
func (d *Dashboard) FoodItems(ctx context.Context) ([]models.FoodItem, error) {
	return d.api.FoodItems(ctx)
}

// AddFoodItem validates and creates a menu entry
func (d *Dashboard) AddFoodItem(ctx context.Context, req models.AddFoodItemRequest) (string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	if req.Name == "" {
		return "", apperr.Invalid("name", "Name is required")
	}
	if req.Price <= 0 {
		return "", apperr.Invalid("price", "Price must be a positive number")
	}
	if _, err := url.ParseRequestURI(req.ImageURL); err != nil {
		return "", apperr.Invalid("image_url", "A valid image URL is required")
	}
	return d.api.AddFoodItem(ctx, req)
}

// RemoveFoodItem deletes a menu entry
func (d *Dashboard) RemoveFoodItem(ctx context.Context, id int) (string, error) {
	if id <= 0 {
		return "", apperr.Invalid("id", "Valid food item ID is required")
	}
	return d.api.RemoveFoodItem(ctx, id)
}
