package mockbackend

import (
	"net/http"

	"github.com/ashendes/smart-dining/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (b *Backend) login(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Invalid request: "+err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	if u.password == "" {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "User has not set a password"})
		return
	}
	if u.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Incorrect password"})
		return
	}

	token := uuid.New().String()
	b.tokens[token] = req.Email
	log.WithField("email", req.Email).Info("User logged in")
	c.JSON(http.StatusOK, models.LoginResponse{Success: true, Token: token})
}

func (b *Backend) signup(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		invalid(c, "Email and password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[req.Email]
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Email not authorized for signup"})
		return
	}
	if u.password != "" {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "User already registered"})
		return
	}
	u.password = req.Password
	b.users[req.Email] = u
	c.JSON(http.StatusCreated, models.MessageResponse{Success: true, Message: "User signed up successfully"})
}

func (b *Backend) requestPasswordReset(c *gin.Context) {
	var req models.PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		invalid(c, "Email is required")
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Verification email sent. Please check your inbox.",
	})
}

func (b *Backend) resetPassword(c *gin.Context) {
	var req models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Token == "" || req.NewPassword == "" {
		invalid(c, "Email, token, and new password are required")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	u, ok := b.users[req.Email]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}
	u.password = req.NewPassword
	b.users[req.Email] = u
	c.JSON(http.StatusOK, models.MessageResponse{Success: true, Message: "Password reset successfully"})
}
