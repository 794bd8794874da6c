package models

// Credentials is used by login and signup
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the opaque session token
type LoginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// PasswordResetRequest starts the reset flow
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest completes the reset flow
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// FeedbackRequest rates a paid order
type FeedbackRequest struct {
	OrderID  string `json:"order_id"`
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}
