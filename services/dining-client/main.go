package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ashendes/smart-dining/internal/backend"
	"github.com/ashendes/smart-dining/internal/cart"
	"github.com/ashendes/smart-dining/internal/config"
	"github.com/ashendes/smart-dining/internal/feedback"
	"github.com/ashendes/smart-dining/internal/notice"
	"github.com/ashendes/smart-dining/internal/otp"
	"github.com/ashendes/smart-dining/internal/owner"
	"github.com/ashendes/smart-dining/internal/payment"
	"github.com/ashendes/smart-dining/internal/reservation"
	"github.com/ashendes/smart-dining/internal/session"
	"github.com/ashendes/smart-dining/internal/web"
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

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}
	log.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.SessionFile), 0o700); err != nil {
		log.Fatal("Failed to create session directory: ", err)
	}
	kv, err := session.NewFileStore(cfg.SessionFile)
	if err != nil {
		log.Fatal("Failed to open session store: ", err)
	}
	sess := session.NewContext(kv)

	api := backend.New(cfg.BackendURL, sess, backend.WithTimeout(cfg.HTTPTimeout))

	store, err := cart.New(kv)
	if err != nil {
		log.Fatal("Failed to load cart: ", err)
	}

	board := notice.NewBoard(cfg.NoticeTTL)
	nav := web.NewNavigator()
	rec := payment.NewReconciler(api, store, nav, board)

	var checkout payment.Checkout = payment.NewSandboxCheckout(cfg.BackendURL, "paid", true)
	if cfg.CheckoutURL != "" {
		link, err := payment.NewLinkCheckout(cfg.CheckoutURL)
		if err != nil {
			log.Fatal(err)
		}
		checkout = link
	}

	payments := payment.NewController(payment.Params{
		API:           api,
		Cart:          store,
		Checkout:      checkout,
		Reconciler:    rec,
		Notices:       board,
		CustomerPhone: cfg.CustomerPhone,
		ReturnURLBase: cfg.ReturnURLBase,
		PollInterval:  cfg.PollInterval,
		PollWindow:    cfg.PollWindow,
	})

	challenge := otp.NewController(api)
	app := web.NewApp(web.Deps{
		Backend:    api,
		Cart:       store,
		Payments:   payments,
		Reconciler: rec,
		Navigator:  nav,
		Notices:    board,
		Tables:     reservation.NewCoordinator(api, challenge),
		OTP:        challenge,
		Owner:      owner.NewDashboard(api, owner.NewClearedSinceFilter(api, kv, nil)),
		Feedback:   feedback.NewCollector(api),
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: app.Router(),
	}

	go func() {
		log.WithFields(log.Fields{
			"backend_url": cfg.BackendURL,
			"listen_addr": cfg.ListenAddr,
			"session":     cfg.SessionFile,
		}).Info("Dining client starting")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down dining client")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithField("error", err.Error()).Error("Server shutdown failed")
	}
	payments.Close()
}
