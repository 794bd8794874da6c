package models

import "regexp"

// TableStatus is the availability of one table in a snapshot
type TableStatus string

// TableStatus constants
const (
	TableAvailable TableStatus = "Available"
	TableReserved  TableStatus = "Reserved"
)

// Table numbers are a fixed range shared by all clients
const (
	MinTableNumber = 1
	MaxTableNumber = 6
)

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// IsPhoneNumber reports whether s is exactly 10 ASCII digits
func IsPhoneNumber(s string) bool {
	return phonePattern.MatchString(s)
}

// ValidTable reports whether n is one of the fixed table numbers
func ValidTable(n int) bool {
	return n >= MinTableNumber && n <= MaxTableNumber
}

// TablesResponse maps table numbers (as strings) to their status
type TablesResponse map[string]TableStatus

// SendOTPRequest asks the backend to text an OTP to a phone number
type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// VerifyOTPRequest submits the code received by the guest
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

// OTPResponse is returned by both OTP endpoints
type OTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ReserveRequest locks a table for a verified guest
type ReserveRequest struct {
	TableNumber int    `json:"table_number"`
	UserName    string `json:"user_name"`
	PhoneNumber string `json:"phone_number"`
}

// UnreserveRequest releases a table
type UnreserveRequest struct {
	TableNumber int `json:"table_number"`
}

// ReservationResponse carries the server-supplied message
type ReservationResponse struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message"`
}

// Reservation is a reservation record as listed for the owner
type Reservation struct {
	TableNumber int    `json:"table_number"`
	UserName    string `json:"user_name"`
	PhoneNumber string `json:"phone_number"`
}
