package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassification(t *testing.T) {
	validation := Invalid("phone_number", "Please enter a valid 10-digit phone number")
	transient := &TransientError{Op: "verify payment", Err: errors.New("connection refused")}
	rejection := &RejectionError{Op: "verify otp", StatusCode: 400, Message: "Invalid OTP!"}

	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", validation)))
	assert.False(t, IsValidation(transient))

	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", transient)))
	assert.False(t, IsTransient(rejection))

	assert.True(t, IsRejection(rejection))
	assert.False(t, IsRejection(validation))
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Invalid OTP!", Message(fmt.Errorf("verify: %w", &RejectionError{Message: "Invalid OTP!"})))
	assert.Equal(t, "Please enter your name", Message(Invalid("user_name", "Please enter your name")))
	assert.Equal(t, "verify payment: timeout", Message(&TransientError{Op: "verify payment", Err: errors.New("timeout")}))
}
