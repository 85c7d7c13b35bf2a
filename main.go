package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorillaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"stepLeagueAPI/handlers"
	"stepLeagueAPI/internal/notification"
	"stepLeagueAPI/middleware"
	"stepLeagueAPI/services"

	_ "net/http/pprof"
)

var (
	dbPool              *pgxpool.Pool
	userService         *services.UserService
	stepsService        *services.StepsService
	leagueService       *services.LeagueService
	shareService        *services.ShareService
	feedbackService     *services.FeedbackService
	analyticsService    *services.AnalyticsService
	verificationService *services.VerificationService
	notificationService *services.NotificationService
	fcmService          *notification.FCMService
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	clerkSecretKey := os.Getenv("CLERK_SECRET_KEY")
	if clerkSecretKey == "" {
		log.Fatal("CLERK_SECRET_KEY environment variable is not set")
	}
	clerk.SetKey(clerkSecretKey)
	log.Println("Clerk initialized successfully")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		log.Fatal("Failed to parse database URL:", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatal("Failed to create connection pool:", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	log.Println("Successfully connected to database")

	appURL := os.Getenv("APP_URL")
	if appURL == "" {
		appURL = "https://stepleague.app"
	}

	notificationService = services.NewNotificationService(dbPool)
	userService = services.NewUserService(dbPool, notificationService)
	stepsService = services.NewStepsService(dbPool, userService, notificationService)
	leagueService = services.NewLeagueService(dbPool, userService)
	shareService = services.NewShareService(dbPool, userService, stepsService, leagueService, appURL)
	feedbackService = services.NewFeedbackService(dbPool, userService)
	analyticsService = services.NewAnalyticsService(dbPool, userService)
	verificationService = services.NewVerificationService(dbPool, userService, stepsService, notificationService, nil)

	fcmService, err = notification.NewFCMService("./serviceAccountKey.json")
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		notificationService.SetPushProvider(fcmService)
		log.Println("FCM Push Provider initialized successfully")
	}

	middleware.InitPrometheus()
}

func main() {
	defer func() {
		log.Println("Closing database connection pool...")
		dbPool.Close()
	}()

	verificationService.Start()

	userHandler := handlers.NewUserHandler(userService)
	stepsHandler := handlers.NewStepsHandler(stepsService)
	leagueHandler := handlers.NewLeagueHandler(leagueService)
	shareHandler := handlers.NewShareHandler(shareService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService, notificationService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	verificationHandler := handlers.NewVerificationHandler(verificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	webhookHandler := handlers.NewWebhookHandler(userService)
	docsHandler := handlers.NewDocsHandler()

	r := mux.NewRouter()

	go middleware.CleanupVisitors()

	r.Use(middleware.RateLimitMiddleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(promhttp.Handler()))
	r.PathPrefix("/debug/pprof/").Handler(middleware.PprofSecurityMiddleware(http.DefaultServeMux))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := dbPool.Ping(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "stepLeague-api"}`))
	}).Methods("GET")

	r.HandleFunc("/webhooks/clerk", webhookHandler.HandleClerkWebhook).Methods("POST")

	// -------------------------------------------------------------------------
	// API V1 SUBROUTER
	// -------------------------------------------------------------------------
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/privacy-policy", docsHandler.ServePrivacyPolicy).Methods("GET")
	api.HandleFunc("/terms-of-service", docsHandler.ServeTermsOfService).Methods("GET")
	api.HandleFunc("/changelog", feedbackHandler.GetChangelog).Methods("GET")

	// -------------------------------------------------------------------------
	// PROTECTED ROUTES (REQUIRE AUTH HEADER)
	// -------------------------------------------------------------------------
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)

	protected.HandleFunc("/user", userHandler.GetProfile).Methods("GET")
	protected.HandleFunc("/user", userHandler.UpdateProfile).Methods("PUT")
	protected.HandleFunc("/user", userHandler.DeleteAccount).Methods("DELETE")
	protected.HandleFunc("/user/friends", userHandler.GetFriends).Methods("GET")
	protected.HandleFunc("/user/friends", userHandler.AddFriend).Methods("POST")
	protected.HandleFunc("/user/friends/{id}", userHandler.RemoveFriend).Methods("DELETE")
	protected.HandleFunc("/user/search", userHandler.SearchUsers).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.GetPublicProfile).Methods("GET")

	protected.HandleFunc("/steps", stepsHandler.AddSteps).Methods("POST")
	protected.HandleFunc("/steps", stepsHandler.RemoveSteps).Methods("DELETE")
	protected.HandleFunc("/steps/streak", stepsHandler.GetStreak).Methods("GET")
	protected.HandleFunc("/steps/stats", stepsHandler.GetStats).Methods("GET")
	protected.HandleFunc("/steps/stats/period", stepsHandler.GetPeriodStats).Methods("GET")
	protected.HandleFunc("/steps/calendar", stepsHandler.GetCalendar).Methods("GET")

	protected.HandleFunc("/submissions", verificationHandler.CreateSubmission).Methods("POST")
	protected.HandleFunc("/submissions/{id}", verificationHandler.GetSubmission).Methods("GET")

	protected.HandleFunc("/leagues", leagueHandler.CreateLeague).Methods("POST")
	protected.HandleFunc("/leagues/global", leagueHandler.GetGlobalLeaderboard).Methods("GET")
	protected.HandleFunc("/leagues/{id}", leagueHandler.GetLeague).Methods("GET")
	protected.HandleFunc("/leagues/{id}/join", leagueHandler.JoinLeague).Methods("POST")
	protected.HandleFunc("/leagues/{id}/leave", leagueHandler.LeaveLeague).Methods("POST")
	protected.HandleFunc("/leagues/{id}/leaderboard", leagueHandler.GetLeaderboard).Methods("GET")

	protected.HandleFunc("/share/options", shareHandler.GetShareOptions).Methods("GET")
	protected.HandleFunc("/share/message", shareHandler.BuildMessage).Methods("POST")
	protected.HandleFunc("/share/card", shareHandler.GetShareCard).Methods("GET")

	protected.HandleFunc("/feedback", feedbackHandler.CreateFeedback).Methods("POST")

	protected.HandleFunc("/analytics/events", analyticsHandler.TrackEvent).Methods("POST")
	protected.HandleFunc("/analytics/heartbeat", analyticsHandler.Heartbeat).Methods("POST")
	protected.HandleFunc("/analytics/disconnect", analyticsHandler.Disconnect).Methods("POST")
	protected.HandleFunc("/analytics/crash", analyticsHandler.ReportCrash).Methods("POST")

	protected.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")
	protected.HandleFunc("/notifications/unread-count", notificationHandler.GetUnreadCount).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/preferences", notificationHandler.GetPreferences).Methods("GET")
	protected.HandleFunc("/notifications/preferences", notificationHandler.UpdatePreferences).Methods("PUT")
	protected.HandleFunc("/notifications/register-device", notificationHandler.RegisterDevice).Methods("POST")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkAsRead).Methods("PUT")
	protected.HandleFunc("/notifications/{id}", notificationHandler.DeleteNotification).Methods("DELETE")

	protected.HandleFunc("/min-version", docsHandler.GetAppMinVersion).Methods("GET")

	// -------------------------------------------------------------------------
	// ADMIN ROUTES
	// -------------------------------------------------------------------------
	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminMiddleware)

	admin.HandleFunc("/feedback", feedbackHandler.ListFeedback).Methods("GET")
	admin.HandleFunc("/feedback/board", feedbackHandler.GetBoard).Methods("GET")
	admin.HandleFunc("/feedback/export", feedbackHandler.ExportCSV).Methods("GET")
	admin.HandleFunc("/feedback/{id}", feedbackHandler.GetFeedback).Methods("GET")
	admin.HandleFunc("/feedback/{id}", feedbackHandler.UpdateFeedback).Methods("PUT")
	admin.HandleFunc("/feedback/{id}/status", feedbackHandler.MoveStatus).Methods("PATCH")
	admin.HandleFunc("/feedback/{id}/visibility", feedbackHandler.SetVisibility).Methods("PATCH")
	admin.HandleFunc("/analytics/summary", analyticsHandler.GetSummary).Methods("GET")

	// CORS configuration
	corsHandler := gorillaHandlers.CORS(
		gorillaHandlers.AllowedOrigins([]string{"*"}),
		gorillaHandlers.AllowedMethods([]string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		gorillaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Pprof-Secret"}),
		gorillaHandlers.ExposedHeaders([]string{"Content-Length", "Retry-After"}),
		gorillaHandlers.AllowCredentials(),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "3333"
	}
	port = ":" + port

	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	verificationService.Stop()
	notificationService.Stop()

	log.Println("Server shutdown complete")
}
