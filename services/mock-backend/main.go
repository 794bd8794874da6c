package main

import (
	"os"
	"strconv"
	"strings"

	"github.com/ashendes/smart-dining/internal/mockbackend"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func init() {
	// Initialize logger
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment variables")
	}

	backend := mockbackend.New(mockbackend.WithOTPHook(func(phone, code string) {
		log.WithFields(log.Fields{
			"phone_number": phone,
			"otp":          code,
		}).Info("OTP issued")
	}))

	// MOCK_USERS is a comma-separated list of email:password[:admin]
	for _, entry := range strings.Split(getEnv("MOCK_USERS", "owner@example.com:secret:admin,guest@example.com:secret"), ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) < 2 || parts[0] == "" {
			continue
		}
		backend.AddUser(parts[0], parts[1], len(parts) > 2 && parts[2] == "admin")
	}

	if rate := getEnv("CHAOS_FAILURE_RATE", ""); rate != "" {
		f, err := strconv.ParseFloat(rate, 32)
		if err != nil {
			log.Fatal("Invalid CHAOS_FAILURE_RATE: ", err)
		}
		backend.SetFailureRate(float32(f))
	}
	if getEnv("CHAOS_ENABLED", "false") == "true" {
		backend.SetChaos(true)
	}

	addr := getEnv("LISTEN_ADDR", ":8090")
	log.WithField("listen_addr", addr).Info("Mock backend starting")
	if err := backend.Router().Run(addr); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// getEnv gets environment variable with fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
