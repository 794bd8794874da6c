package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ashendes/smart-dining/internal/models"
)

// Login authenticates and stores the session token
func (c *Client) Login(ctx context.Context, creds models.Credentials) error {
	var resp models.LoginResponse
	err := c.doJSON(ctx, call{
		group:     GroupAuth,
		operation: "login",
		method:    http.MethodPost,
		path:      "/login",
		body:      creds,
	}, &resp)
	if err != nil {
		return err
	}
	if !resp.Success || resp.Token == "" {
		return rejected("login", resp.Message, "Login failed")
	}
	if err := c.session.SetToken(resp.Token); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	return nil
}

// Logout forgets the session token
func (c *Client) Logout() error {
	return c.session.ClearToken()
}

// Signup registers a password for a pre-authorised email
func (c *Client) Signup(ctx context.Context, creds models.Credentials) (string, error) {
	return c.message(ctx, "signup", "/signup", creds)
}

// RequestPasswordReset emails a reset token
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	return c.message(ctx, "request password reset", "/request-password-reset", models.PasswordResetRequest{Email: email})
}

// ResetPassword completes the reset with the emailed token
func (c *Client) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (string, error) {
	return c.message(ctx, "reset password", "/reset-password", req)
}

// SubmitFeedback rates a paid order
func (c *Client) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (string, error) {
	var resp models.MessageResponse
	err := c.doJSON(ctx, call{
		group:     GroupFeedback,
		operation: "submit feedback",
		method:    http.MethodPost,
		path:      "/submit-feedback",
		body:      req,
		auth:      true,
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", rejected("submit feedback", resp.Message, "Failed to submit feedback.")
	}
	return resp.Message, nil
}

func (c *Client) message(ctx context.Context, operation, path string, body interface{}) (string, error) {
	var resp models.MessageResponse
	err := c.doJSON(ctx, call{
		group:     GroupAuth,
		operation: operation,
		method:    http.MethodPost,
		path:      path,
		body:      body,
	}, &resp)
	if err != nil {
		return "", err
	}
	if !resp.Success {
		return "", rejected(operation, resp.Message, operation+" failed")
	}
	return resp.Message, nil
}
