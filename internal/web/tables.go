package web

import (
	"net/http"
	"strconv"

	"github.com/ashendes/smart-dining/internal/apperr"
	"github.com/ashendes/smart-dining/internal/models"
	"github.com/gin-gonic/gin"
)

type selectTableRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

func (a *App) getTables(c *gin.Context) {
	if err := a.Tables.Refresh(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tablesView(a.Tables.Snapshot()))
}

func (a *App) selectTable(c *gin.Context) {
	table, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		fail(c, apperr.Invalid("table_number", "Table number must be a number"))
		return
	}
	var req selectTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Invalid("phone_number", "Name and phone number are required"))
		return
	}

	started, err := a.Tables.Select(c.Request.Context(), table, req.Name, req.PhoneNumber)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"otp_sent":   started,
		"otp_state":  a.OTP.State().String(),
		"table_no":   table,
		"table_free": a.Tables.Snapshot()[table] != models.TableReserved,
	})
}

func (a *App) resendOTP(c *gin.Context) {
	if err := a.OTP.Resend(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	succeed(c, "OTP sent successfully!")
}

func (a *App) verifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.Invalid("otp", "Phone number and OTP are required"))
		return
	}

	msg, err := a.Tables.Confirm(c.Request.Context(), req.PhoneNumber, req.OTP)
	if err != nil {
		fail(c, err)
		return
	}
	succeed(c, msg)
}

func (a *App) cancelOTP(c *gin.Context) {
	a.Tables.Cancel()
	c.Status(http.StatusNoContent)
}

// tablesView keys the snapshot by table number string, as the backend does
func tablesView(snapshot map[int]models.TableStatus) models.TablesResponse {
	out := make(models.TablesResponse, len(snapshot))
	for n, status := range snapshot {
		out[strconv.Itoa(n)] = status
	}
	return out
}
