package mockbackend

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/ashendes/smart-dining/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (b *Backend) listTables(c *gin.Context) {
	tables := make(models.TablesResponse, models.MaxTableNumber)

	b.mu.RLock()
	for n := models.MinTableNumber; n <= models.MaxTableNumber; n++ {
		tables[strconv.Itoa(n)] = models.TableAvailable
		if _, ok := b.reservations[n]; ok {
			tables[strconv.Itoa(n)] = models.TableReserved
		}
	}
	b.mu.RUnlock()

	c.JSON(http.StatusOK, tables)
}

func (b *Backend) sendOTP(c *gin.Context) {
	var req models.SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.IsPhoneNumber(req.PhoneNumber) {
		invalid(c, "Phone number must be 10 digits long")
		return
	}

	b.mu.Lock()
	code := b.newOTP()
	b.otps[req.PhoneNumber] = otpEntry{code: code, expiry: b.clock.Now().Add(otpTTL)}
	hook := b.onOTP
	b.mu.Unlock()

	if hook != nil {
		hook(req.PhoneNumber, code)
	} else {
		log.WithField("phone_number", req.PhoneNumber).Info("OTP issued")
	}

	c.JSON(http.StatusOK, models.OTPResponse{Success: true, Message: "OTP sent successfully!"})
}

func (b *Backend) verifyOTP(c *gin.Context) {
	var req models.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Invalid request: "+err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.otps[req.PhoneNumber]
	if !ok {
		invalid(c, "OTP not found or expired")
		return
	}
	if b.clock.Now().After(entry.expiry) {
		invalid(c, "OTP expired")
		return
	}
	if entry.code != req.OTP {
		invalid(c, "Invalid OTP!")
		return
	}

	delete(b.otps, req.PhoneNumber)
	c.JSON(http.StatusOK, models.OTPResponse{Success: true, Message: "OTP verified!"})
}

func (b *Backend) reserve(c *gin.Context) {
	var req models.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Invalid request: "+err.Error())
		return
	}
	if !models.IsPhoneNumber(req.PhoneNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Phone number must be 10 digits long"})
		return
	}
	if !models.ValidTable(req.TableNumber) {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Unknown table"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.reservations[req.TableNumber]; taken {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Table already reserved"})
		return
	}
	b.reservations[req.TableNumber] = models.Reservation{
		TableNumber: req.TableNumber,
		UserName:    req.UserName,
		PhoneNumber: req.PhoneNumber,
	}

	log.WithField("table_number", req.TableNumber).Info("Table reserved")
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Table %d reserved successfully", req.TableNumber)})
}

func (b *Backend) unreserve(c *gin.Context) {
	var req models.UnreserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalid(c, "Invalid request: "+err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.reservations[req.TableNumber]; !taken {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Table is not reserved"})
		return
	}
	delete(b.reservations, req.TableNumber)
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("Table %d is now available", req.TableNumber)})
}

func (b *Backend) listReservations(c *gin.Context) {
	b.mu.RLock()
	out := make([]models.Reservation, 0, len(b.reservations))
	for _, r := range b.reservations {
		out = append(out, r)
	}
	b.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].TableNumber < out[j].TableNumber })
	c.JSON(http.StatusOK, out)
}
