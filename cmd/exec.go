package cmd

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"

	"event-checkout/config"
	"event-checkout/handlers"
	"event-checkout/internal/services/ticketing"
	"event-checkout/security"
	"event-checkout/services"
	"event-checkout/utils"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL)
	defer redisClient.Close()

	// Initialize PubNub (session notifications)
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.PubNubPublishKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ticketing backend client and payment outcome listener
	client := ticketing.NewClient(&cfg.Ticketing)

	if cfg.Listener.SubscribeKey != "" {
		notifications := make(chan *ticketing.PaymentNotification, 1)
		ticketing.NewPaymentListener(ctx, &cfg.Listener, notifications)

		// Offsite payments finish after the session is gone, so outcomes
		// are re-published on a transaction-scoped channel the redirected
		// client subscribes to.
		go func() {
			for {
				select {
				case n := <-notifications:
					slog.Info("payment notification received",
						"transaction_id", n.TransactionID, "status", n.Status)
					data := map[string]any{"transaction_id": n.TransactionID, "status": n.Status}
					if n.Status == "failed" {
						notifier.Error("tx-"+n.TransactionID, "payment failed", data)
					} else {
						notifier.Success("tx-"+n.TransactionID, "payment completed", data)
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	// Initialize services
	seatCache := services.NewSeatCacheService(redisClient, client, cfg.SeatCacheTTL)
	sessionService := services.NewSessionService(client, seatCache, notifier, cfg)
	submissionService := services.NewSubmissionService(client, notifier)

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(app, sessionService, submissionService, cfg.MaxStagedFileSize)
	rateLimiter := security.NewRateLimiter(redisClient, cfg.RateLimitPerMinute)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Start background tasks
	go sessionService.CleanupExpiredSessions(ctx)

	// Setup graceful shutdown
	go handleShutdown(cancel)

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Session lifecycle
		e.Router.POST("/api/v1/events/{eventId}/checkout", checkoutHandler.StartSession).
			BindFunc(rateLimiter.CheckoutRateLimit())
		e.Router.GET("/api/v1/checkout/{sessionId}", checkoutHandler.GetState)

		// Ticket selection
		e.Router.PUT("/api/v1/checkout/{sessionId}/tickets", checkoutHandler.SetTicketQuantity)
		e.Router.POST("/api/v1/checkout/{sessionId}/tickets/stage", checkoutHandler.StageQuantity)
		e.Router.POST("/api/v1/checkout/{sessionId}/tickets/commit", checkoutHandler.CommitQuantity)
		e.Router.POST("/api/v1/checkout/{sessionId}/tickets/discard", checkoutHandler.DiscardQuantity)
		e.Router.GET("/api/v1/checkout/{sessionId}/tickets/max", checkoutHandler.GetMaxQuantity)

		// Seats
		e.Router.POST("/api/v1/checkout/{sessionId}/shows/activate", checkoutHandler.ActivateShow)
		e.Router.PUT("/api/v1/checkout/{sessionId}/seats", checkoutHandler.SelectSeats)
		e.Router.POST("/api/v1/checkout/{sessionId}/seats/audience", checkoutHandler.ConfirmAudience)
		e.Router.DELETE("/api/v1/checkout/{sessionId}/seats/audience", checkoutHandler.CancelAudience)

		// Concessions and vouchers
		e.Router.PUT("/api/v1/checkout/{sessionId}/concessions", checkoutHandler.SetConcession)
		e.Router.GET("/api/v1/checkout/{sessionId}/vouchers", checkoutHandler.PublicVouchers)
		e.Router.POST("/api/v1/checkout/{sessionId}/voucher", checkoutHandler.ApplyVoucher)
		e.Router.DELETE("/api/v1/checkout/{sessionId}/voucher", checkoutHandler.ClearVoucher)

		// Buyer info and payment
		e.Router.PUT("/api/v1/checkout/{sessionId}/customer", checkoutHandler.UpdateCustomer)
		e.Router.PUT("/api/v1/checkout/{sessionId}/holders", checkoutHandler.SetHolder)
		e.Router.PUT("/api/v1/checkout/{sessionId}/payment", checkoutHandler.SetPayment)
		e.Router.POST("/api/v1/checkout/{sessionId}/avatar", checkoutHandler.StageAvatar)

		// Step navigation
		e.Router.POST("/api/v1/checkout/{sessionId}/next", checkoutHandler.Next)
		e.Router.POST("/api/v1/checkout/{sessionId}/back", checkoutHandler.Back)
		e.Router.POST("/api/v1/checkout/{sessionId}/goto", checkoutHandler.JumpTo)

		// Submission
		e.Router.POST("/api/v1/checkout/{sessionId}/submit", checkoutHandler.Submit).
			BindFunc(rateLimiter.CheckoutRateLimit())

		// Submission audit
		e.Router.GET("/api/v1/events/{eventId}/submissions", checkoutHandler.ListSubmissions)

		// Metrics
		e.Router.GET("/metrics", apis.WrapStdHandler(promhttp.Handler()))

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
