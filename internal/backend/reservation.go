package backend

import (
	"context"
	"net/http"
	"strconv"

	"github.com/ashendes/smart-dining/internal/models"
)

// Tables fetches the availability snapshot. Tables missing from the answer
// are reported as available.
func (c *Client) Tables(ctx context.Context) (map[int]models.TableStatus, error) {
	var resp models.TablesResponse
	err := c.doJSON(ctx, call{
		group:     GroupReservation,
		operation: "fetch tables",
		method:    http.MethodGet,
		path:      "/tables",
		auth:      true,
	}, &resp)
	if err != nil {
		return nil, err
	}

	snapshot := make(map[int]models.TableStatus, models.MaxTableNumber)
	for n := models.MinTableNumber; n <= models.MaxTableNumber; n++ {
		snapshot[n] = models.TableAvailable
		if resp[strconv.Itoa(n)] == models.TableReserved {
			snapshot[n] = models.TableReserved
		}
	}
	return snapshot, nil
}

// SendOTP asks the OTP provider to text a code to phone
func (c *Client) SendOTP(ctx context.Context, phone string) (*models.OTPResponse, error) {
	var resp models.OTPResponse
	err := c.doJSON(ctx, call{
		group:     GroupReservation,
		operation: "send otp",
		method:    http.MethodPost,
		path:      "/send-otp",
		body:      models.SendOTPRequest{PhoneNumber: phone},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected("send otp", resp.Message, "Failed to send OTP. Please try again.")
	}
	return &resp, nil
}

// VerifyOTP checks code against the OTP issued for phone
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*models.OTPResponse, error) {
	var resp models.OTPResponse
	err := c.doJSON(ctx, call{
		group:     GroupReservation,
		operation: "verify otp",
		method:    http.MethodPost,
		path:      "/verify-otp",
		body:      models.VerifyOTPRequest{PhoneNumber: phone, OTP: code},
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, rejected("verify otp", resp.Message, "Invalid OTP. Please try again.")
	}
	return &resp, nil
}

// Reserve locks a table and returns the server-supplied message
func (c *Client) Reserve(ctx context.Context, req models.ReserveRequest) (string, error) {
	var resp models.ReservationResponse
	err := c.doJSON(ctx, call{
		group:     GroupReservation,
		operation: "reserve table",
		method:    http.MethodPost,
		path:      "/reserve",
		body:      req,
		auth:      true,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Success != nil && !*resp.Success {
		return "", rejected("reserve table", resp.Message, "Failed to reserve table. Please try again.")
	}
	if resp.Message == "" {
		resp.Message = "Table reserved successfully!"
	}
	return resp.Message, nil
}

// Unreserve releases a table and returns the server-supplied message
func (c *Client) Unreserve(ctx context.Context, table int) (string, error) {
	var resp models.ReservationResponse
	err := c.doJSON(ctx, call{
		group:     GroupOwner,
		operation: "unreserve table",
		method:    http.MethodPost,
		path:      "/unreserve",
		body:      models.UnreserveRequest{TableNumber: table},
		auth:      true,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Message, nil
}
