package backend

import (
	"context"
	"net/http"

	"github.com/ashendes/smart-dining/internal/models"
)

// FoodItems fetches the menu catalog
func (c *Client) FoodItems(ctx context.Context) ([]models.FoodItem, error) {
	var items []models.FoodItem
	err := c.doJSON(ctx, call{
		group:     GroupCatalog,
		operation: "fetch food items",
		method:    http.MethodGet,
		path:      "/food-items",
		auth:      true,
	}, &items)
	return items, err
}

// AllOrders lists every order record. Owner only.
func (c *Client) AllOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := c.doJSON(ctx, call{
		group:     GroupOwner,
		operation: "fetch all orders",
		method:    http.MethodGet,
		path:      "/all-orders",
		auth:      true,
	}, &orders)
	return orders, err
}

// AllReservations lists every reservation. Owner only.
func (c *Client) AllReservations(ctx context.Context) ([]models.Reservation, error) {
	var reservations []models.Reservation
	err := c.doJSON(ctx, call{
		group:     GroupOwner,
		operation: "fetch all reservations",
		method:    http.MethodGet,
		path:      "/all-reservations",
		auth:      true,
	}, &reservations)
	return reservations, err
}

// AddFoodItem creates a menu entry. Owner only.
func (c *Client) AddFoodItem(ctx context.Context, req models.AddFoodItemRequest) (string, error) {
	var resp models.MessageResponse
	err := c.doJSON(ctx, call{
		group:     GroupOwner,
		operation: "add food item",
		method:    http.MethodPost,
		path:      "/add-food-item",
		body:      req,
		auth:      true,
	}, &resp)
	return resp.Message, err
}

// RemoveFoodItem deletes a menu entry. Owner only.
func (c *Client) RemoveFoodItem(ctx context.Context, id int) (string, error) {
	var resp models.MessageResponse
	err := c.doJSON(ctx, call{
		group:     GroupOwner,
		operation: "remove food item",
		method:    http.MethodPost,
		path:      "/remove-food-item",
		body:      models.RemoveFoodItemRequest{ID: id},
		auth:      true,
	}, &resp)
	return resp.Message, err
}
