package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/moussahe/schoolaris-backend/internal/alerts"
	"github.com/moussahe/schoolaris-backend/internal/auth"
	"github.com/moussahe/schoolaris-backend/internal/database"
	"github.com/moussahe/schoolaris-backend/internal/gamification"
	"github.com/moussahe/schoolaris-backend/internal/insights"
	"github.com/moussahe/schoolaris-backend/internal/learners"
	"github.com/moussahe/schoolaris-backend/internal/middleware"
	"github.com/moussahe/schoolaris-backend/internal/quiz"
	"github.com/rs/cors"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize services
	gamService := gamification.NewService(gamification.NewSQLStore(db))
	alertStore := alerts.NewSQLStore(db)
	insightsClient := insights.NewClient()
	quizService := quiz.NewService(quiz.NewSQLStore(db), gamService, insightsClient, alertStore)

	// Initialize handlers
	authHandler := auth.NewHandler(db)
	learnerHandler := learners.NewHandler(learners.NewSQLStore(db), gamService, quizService)
	gamHandler := gamification.NewHandler(gamService)
	quizHandler := quiz.NewHandler(quizService)
	alertHandler := alerts.NewHandler(alertStore)

	// Setup router
	r := mux.NewRouter()
	api := r.PathPrefix("/api/v1").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// Protected routes
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.AuthMiddleware)
	protected.HandleFunc("/auth/me", authHandler.GetCurrentUser).Methods("GET")
	learnerHandler.RegisterRoutes(protected)
	gamHandler.RegisterRoutes(protected)
	quizHandler.RegisterRoutes(protected)
	alertHandler.RegisterRoutes(protected)

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
