package main

import (
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/arnavchokshi/sway-api/billing"
	"github.com/arnavchokshi/sway-api/database"
	"github.com/arnavchokshi/sway-api/handlers"
	"github.com/arnavchokshi/sway-api/middleware"
	"github.com/arnavchokshi/sway-api/services"
	"github.com/arnavchokshi/sway-api/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
}

func main() {
	utils.InitLogger()

	r := mux.NewRouter()
	r.Use(middleware.Cors())

	db := database.ConnectDB()
	fmt.Println("DbName:", db.Name())

	teamStore := database.NewTeamStore(db)
	creditStore := database.NewCreditStore(db)
	provider := billing.NewClient(
		os.Getenv("BILLING_API_URL"),
		os.Getenv("BILLING_SECRET_KEY"),
		os.Getenv("BILLING_WEBHOOK_SECRET"),
	)
	handlers.Init(teamStore, creditStore, provider)

	sweep, err := services.NewCreditSweep(creditStore, services.NewMembership(teamStore))
	if err != nil {
		log.Fatalf("Failed to create credit sweep: %v", err)
	}
	if err := sweep.Start(); err != nil {
		log.Fatalf("Failed to start credit sweep: %v", err)
	}

	//auth
	r.HandleFunc("/register", handlers.RegisterUser).Methods("POST")
	r.HandleFunc("/login", handlers.LoginUser).Methods("POST")
	r.HandleFunc("/profile", middleware.CheckAuth(handlers.Profile)).Methods("GET")

	//teams
	r.HandleFunc("/teams", middleware.CheckAuth(handlers.CreateTeam)).Methods("POST")
	r.HandleFunc("/teams/join", middleware.CheckAuth(handlers.JoinTeam)).Methods("POST")
	r.HandleFunc("/teams/{id}/membership", middleware.CheckAuth(handlers.GetMembership)).Methods("GET")
	r.HandleFunc("/teams/{id}/referral/apply", middleware.CheckAuth(handlers.ApplyReferral)).Methods("POST")
	r.HandleFunc("/teams/{id}/subscription", middleware.CheckAuth(handlers.CreateSubscription)).Methods("POST")
	r.HandleFunc("/teams/{id}/subscription", middleware.CheckAuth(handlers.CancelSubscription)).Methods("DELETE")

	//segments
	r.HandleFunc("/teams/{id}/segments", middleware.CheckAuth(handlers.CreateSegment)).Methods("POST")
	r.HandleFunc("/teams/{id}/segments", middleware.CheckAuth(handlers.GetSegments)).Methods("GET")

	//billing webhook
	r.HandleFunc("/webhooks/billing", handlers.BillingWebhook).Methods("POST")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Println("Server is running at http://localhost:" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
