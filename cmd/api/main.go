package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mutua/takabill/docs"
	"github.com/mutua/takabill/internal/activity"
	"github.com/mutua/takabill/internal/config"
	"github.com/mutua/takabill/internal/customer"
	"github.com/mutua/takabill/internal/database"
	"github.com/mutua/takabill/internal/invoice"
	"github.com/mutua/takabill/internal/mpesa"
	"github.com/mutua/takabill/internal/notification"
	"github.com/mutua/takabill/internal/payment"
	"github.com/mutua/takabill/internal/settlement"
	"github.com/mutua/takabill/internal/tenant"
	mw "github.com/mutua/takabill/pkg/middleware"
)

// @title           Takabill API
// @version         1.0
// @description     Garbage-collection billing: customers, invoices, payment reconciliation and receipting.
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Repositories
	tenantRepo := tenant.NewRepository(db)
	customerRepo := customer.NewRepository(db)
	invoiceRepo := invoice.NewRepository(db)
	paymentRepo := payment.NewRepository(db)
	activityRepo := activity.NewRepository(db)
	receiptRepo := settlement.NewRepository(db)

	// Notifications: use the gateway when configured, dry-run otherwise
	var sender notification.SMSSender = notification.LogSender{}
	if cfg.SMSAPIURL != "" {
		sender = notification.NewHTTPSender(cfg.SMSAPIURL, cfg.SMSAPIKey)
	}
	notificationService := notification.NewService(sender, tenantRepo, cfg.SMSSenderID)

	// Customer feature
	customerService := customer.NewService(customerRepo)
	customerHandler := customer.NewHandler(customerService)

	// Invoice feature (batch generator + monthly scheduler)
	generator := invoice.NewGenerator(db)
	invoiceHandler := invoice.NewHandler(invoiceRepo, generator)

	scheduler := invoice.NewBillingScheduler(generator, tenantRepo)
	scheduler.Start()
	defer scheduler.Stop()

	// Payment feature
	paymentHandler := payment.NewHandler(paymentRepo)

	// Settlement feature
	settlementStore := settlement.NewPostgresStore(db)
	numbers := settlement.NewNumberGenerator(cfg.ReceiptPrefix)
	settlementService := settlement.NewService(settlementStore, paymentRepo, numbers, activityRepo, notificationService)
	settlementHandler := settlement.NewHandler(settlementService, receiptRepo)

	// Activity feature
	activityHandler := activity.NewHandler(activityRepo)

	// Tenant admin (platform-level, not tenant-scoped)
	tenantHandler := tenant.NewHandler(tenantRepo)

	// Webhooks
	mpesaHandler := mpesa.NewHandler(tenantRepo, customerRepo, paymentRepo, settlementService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Tenant-ID", "X-Operator"},
		AllowCredentials: false,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	// Provider callbacks authenticate by shortcode routing, not operator auth
	r.Mount("/webhooks", mpesaHandler.Routes())

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.OperatorAuth(cfg.OperatorKey))

		// Platform admin: operator-authenticated but not tenant-scoped
		r.Mount("/tenants", tenantHandler.Routes())

		// Tenant-scoped routes
		r.Group(func(r chi.Router) {
			r.Use(mw.TenantResolver)

			r.Mount("/customers", customerHandler.Routes())
			r.Mount("/invoices", invoiceHandler.Routes())
			r.Mount("/payments", paymentHandler.Routes())
			r.Mount("/settlements", settlementHandler.Routes())
			r.Mount("/activity", activityHandler.Routes())
		})
	})

	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
