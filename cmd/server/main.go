package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"shiftbot-backend/internal/database"
	"shiftbot-backend/internal/fleet"
	"shiftbot-backend/internal/handlers"
	"shiftbot-backend/internal/ledger"
	"shiftbot-backend/internal/middleware"
	"shiftbot-backend/internal/registry"
	"shiftbot-backend/internal/scheduler"
	"shiftbot-backend/internal/services"
	"shiftbot-backend/internal/session"
	"shiftbot-backend/internal/telegram"
	"shiftbot-backend/internal/websocket"
	"shiftbot-backend/internal/workflow"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚀 SHIFTBOT BACKEND STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal("BOT_TOKEN environment variable is required")
	}

	spreadsheetID := os.Getenv("SPREADSHEET_ID")
	if spreadsheetID == "" {
		log.Fatal("SPREADSHEET_ID environment variable is required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	// Connect to database
	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// Run migrations and seed
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}
	if err := database.SeedUsers(db); err != nil {
		log.Fatal(err)
	}
	if err := database.SeedVehicles(db); err != nil {
		log.Fatal(err)
	}

	// All shift timestamps and day-row addressing use one fixed timezone,
	// regardless of where the server runs.
	tzName := os.Getenv("SHIFT_TIMEZONE")
	if tzName == "" {
		tzName = "Europe/Brussels"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("Invalid SHIFT_TIMEZONE %q: %v", tzName, err)
	}
	log.Printf("🕐 Shift timezone: %s", tzName)

	// Google Sheets ledger
	credentialsJSON := []byte(os.Getenv("GOOGLE_CREDENTIALS_JSON"))
	if len(credentialsJSON) == 0 {
		credentialsFile := os.Getenv("GOOGLE_CREDENTIALS_FILE")
		if credentialsFile == "" {
			credentialsFile = "./google-service-account.json"
		}
		credentialsJSON, err = os.ReadFile(credentialsFile)
		if err != nil {
			log.Fatalf("Failed to read Google credentials: %v", err)
		}
	}
	shiftLedger, err := ledger.NewSheetsLedger(context.Background(), spreadsheetID, credentialsJSON, loc)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("✅ Google Sheets ledger initialized")

	// Worker registry and fleet catalog
	reg, err := registry.New(registry.NewPostgresStore(db))
	if err != nil {
		log.Fatal(err)
	}
	catalog := fleet.NewCatalog(db)

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64")

	if fcmCredsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}

		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Initialize WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()
	log.Println("✅ WebSocket hub started")

	notifier := services.NewShiftNotifier(wsHub, fcmService, db)

	// Telegram transport, check scheduler, shift engine
	bot, err := telegram.NewBot(botToken)
	if err != nil {
		log.Fatal(err)
	}

	store := session.NewStore()
	active := session.NewActiveSet()

	checks := scheduler.New(active, shiftLedger, func(workerID int64) {
		if err := bot.RequestLocation(workerID, workflow.MsgCheckLocation); err != nil {
			log.Printf("❌ Failed to send check prompt to worker %d: %v", workerID, err)
			return
		}
		if worker, err := reg.Lookup(workerID); err == nil {
			notifier.CheckFired(worker)
		}
	})

	engine := workflow.NewEngine(reg, catalog, store, active, shiftLedger, bot, checks, notifier, loc)
	go bot.Run(context.Background(), engine)
	log.Println("✅ Telegram bot polling started")

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(wsHub))

	// Manager API (require authentication + manager or admin role)
	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)
			r.Use(middleware.RequireRole("manager", "admin"))

			r.Get("/workers", handlers.GetWorkers(reg))
			r.Get("/workers/active", handlers.GetActiveWorkers(reg, store, active))

			r.Get("/vehicles", handlers.GetVehicles(db))
			r.Post("/vehicles", handlers.CreateVehicle(db))
			r.Delete("/vehicles/{id}", handlers.DeleteVehicle(db))

			r.Post("/fcm-token", handlers.RegisterFCMToken(db))
		})
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚀 Server starting on http://localhost:%s", port)
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}
